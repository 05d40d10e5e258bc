package hateoas

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrConfigurationNotFound = errors.New("configuration not found")

// Registry maps schema names to configurations. It is built once from an
// explicit list and is read-only afterwards.
type Registry struct {
	configs map[string]*Configuration
}

func normalizeSchemaName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewRegistry validates and indexes configs. Schema names are unique
// case-insensitively.
func NewRegistry(configs ...Configuration) (*Registry, error) {
	r := &Registry{configs: make(map[string]*Configuration, len(configs))}
	var errs []error
	for i := range configs {
		c := configs[i].clone()
		c.SchemaName = strings.TrimSpace(c.SchemaName)
		if err := validateConfiguration(c); err != nil {
			errs = append(errs, err)
			continue
		}
		key := normalizeSchemaName(c.SchemaName)
		if prev, dup := r.configs[key]; dup {
			errs = append(errs, fmt.Errorf("duplicate configuration for schema %q (already registered as %q)", c.SchemaName, prev.SchemaName))
			continue
		}
		r.configs[key] = c
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

func validateConfiguration(c *Configuration) error {
	if c.SchemaName == "" {
		return errors.New("configuration schema name is empty")
	}
	var errs []error
	seen := map[string]string{}
	opIDs := make([]string, 0, len(c.Links))
	for op := range c.Links {
		opIDs = append(opIDs, op)
	}
	sort.Strings(opIDs)
	for _, op := range opIDs {
		name := c.Links[op]
		if strings.TrimSpace(op) == "" {
			errs = append(errs, errors.New("empty operationId"))
			continue
		}
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("operation %q: empty link name", op))
			continue
		}
		if other, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("link %q declared by operations %q and %q", name, other, op))
			continue
		}
		seen[name] = op
	}
	for name, cond := range c.Conditions {
		if strings.TrimSpace(cond.Property) == "" {
			errs = append(errs, fmt.Errorf("condition for link %q: empty property", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("schema %q: %w", c.SchemaName, errors.Join(errs...))
	}
	return nil
}

// Resolve returns the configuration of a schema identity. The returned value
// must not be modified.
func (r *Registry) Resolve(schemaName string) (*Configuration, error) {
	if r != nil {
		if c, ok := r.configs[normalizeSchemaName(schemaName)]; ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrConfigurationNotFound, schemaName)
}

func (r *Registry) ListSchemaNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.configs))
	for _, c := range r.configs {
		names = append(names, c.SchemaName)
	}
	sort.Strings(names)
	return names
}

// Configurations returns every configuration sorted by schema name.
func (r *Registry) Configurations() []*Configuration {
	if r == nil {
		return nil
	}
	out := make([]*Configuration, 0, len(r.configs))
	for _, c := range r.configs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaName < out[j].SchemaName })
	return out
}
