package hateoas

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/jsonvalue"
)

// LinkFile is the YAML form of a list of configurations:
//
//	configurations:
//	  - api_title: WebApi
//	    schema_name: Thought
//	    links:
//	      get-thought-by-id: self
//	    conditions:
//	      self: {property: description, kind: string, op: ne, value: Confidential}
type LinkFile struct {
	Configurations []LinkFileEntry `yaml:"configurations"`
}

type LinkFileEntry struct {
	APITitle   string                       `yaml:"api_title"`
	SchemaName string                       `yaml:"schema_name"`
	Links      map[string]string            `yaml:"links"`
	Conditions map[string]LinkFileCondition `yaml:"conditions"`
}

// LinkFileCondition keeps the link when `<property> <op> <value(s)>` holds.
type LinkFileCondition struct {
	Property string `yaml:"property"`
	Kind     string `yaml:"kind"`
	// Op is one of eq, ne, in, not_in.
	Op     string `yaml:"op"`
	Value  any    `yaml:"value"`
	Values []any  `yaml:"values"`
}

func LoadLinkFile(path string) ([]Configuration, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("link file path is empty")
	}
	// #nosec G304 -- link file path comes from trusted config.
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read link file %q: %w", p, err)
	}
	cfgs, err := ParseLinkFile(b)
	if err != nil {
		return nil, fmt.Errorf("link file %q: %w", p, err)
	}
	return cfgs, nil
}

func ParseLinkFile(data []byte) ([]Configuration, error) {
	var f LinkFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse link file: %w", err)
	}
	out := make([]Configuration, 0, len(f.Configurations))
	var errs []error
	for i, e := range f.Configurations {
		c := Configuration{
			APITitle:   strings.TrimSpace(e.APITitle),
			SchemaName: strings.TrimSpace(e.SchemaName),
			Links:      map[string]string{},
			Conditions: map[string]Condition{},
		}
		for op, name := range e.Links {
			c.Links[strings.TrimSpace(op)] = strings.TrimSpace(name)
		}
		for name, fc := range e.Conditions {
			cond, err := fc.condition()
			if err != nil {
				errs = append(errs, fmt.Errorf("configurations[%d] (%s) condition %q: %w", i, c.SchemaName, name, err))
				continue
			}
			c.Conditions[strings.TrimSpace(name)] = cond
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (fc LinkFileCondition) condition() (Condition, error) {
	prop := strings.TrimSpace(fc.Property)
	if prop == "" {
		return Condition{}, errors.New("property is required")
	}
	kind, ok := jsonvalue.ParseKind(fc.Kind)
	if !ok || kind == jsonvalue.KindNull || kind == jsonvalue.KindArray || kind == jsonvalue.KindObject {
		return Condition{}, fmt.Errorf("unsupported kind %q (want string, boolean or number)", fc.Kind)
	}
	op := strings.ToLower(strings.TrimSpace(fc.Op))
	if op == "" {
		op = "eq"
	}

	switch op {
	case "eq", "ne":
		want, err := operand(fc.Value, kind)
		if err != nil {
			return Condition{}, err
		}
		pred := Equals(want)
		if op == "ne" {
			pred = NotEquals(want)
		}
		return Condition{Property: prop, Kind: kind, Predicate: pred}, nil
	case "in", "not_in":
		if len(fc.Values) == 0 {
			return Condition{}, fmt.Errorf("op %s requires values", op)
		}
		values := make([]jsonvalue.Value, 0, len(fc.Values))
		for _, raw := range fc.Values {
			v, err := operand(raw, kind)
			if err != nil {
				return Condition{}, err
			}
			values = append(values, v)
		}
		pred := In(values...)
		if op == "not_in" {
			pred = NotIn(values...)
		}
		return Condition{Property: prop, Kind: kind, Predicate: pred}, nil
	default:
		return Condition{}, fmt.Errorf("unsupported op %q", fc.Op)
	}
}

func operand(raw any, kind jsonvalue.Kind) (jsonvalue.Value, error) {
	v, err := jsonvalue.FromGo(raw)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	if v.Kind() != kind {
		return jsonvalue.Value{}, fmt.Errorf("value %s is %s, want %s", v.Text(), v.Kind(), kind)
	}
	return v, nil
}
