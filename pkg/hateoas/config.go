// Package hateoas decorates JSON responses with HAL-style `_links` and
// `_embedded` members, driven by per-schema link configurations and the
// response schemas of an OpenAPI document.
package hateoas

import (
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/jsonvalue"
)

// Configuration describes the links of one schema.
type Configuration struct {
	// APITitle names the downstream API the schema belongs to. It is checked
	// against the document title but not used to pick between configurations.
	APITitle string
	// SchemaName is the component name under #/components/schemas.
	SchemaName string
	// Links maps operationId to link name.
	Links map[string]string
	// Conditions maps link name to the condition that keeps it.
	Conditions map[string]Condition
}

// Predicate decides whether a link stays, given the coerced field value.
type Predicate func(v jsonvalue.Value) bool

// Condition gates a link on one field of the decorated object.
type Condition struct {
	Property  string
	Kind      jsonvalue.Kind
	Predicate Predicate
}

// Allows reports whether the link survives for obj. A missing or null field,
// a field of another JSON type, or a nil predicate all keep the link.
func (c Condition) Allows(obj *jsonvalue.Object) bool {
	v, ok := obj.Get(c.Property)
	if !ok || v.IsNull() {
		return true
	}
	cv, ok := jsonvalue.Coerce(v, c.Kind)
	if !ok || c.Predicate == nil {
		return true
	}
	return c.Predicate(cv)
}

func WhenString(property string, pred func(s string) bool) Condition {
	return Condition{
		Property: property,
		Kind:     jsonvalue.KindString,
		Predicate: func(v jsonvalue.Value) bool {
			s, _ := v.AsString()
			return pred(s)
		},
	}
}

func WhenBool(property string, pred func(b bool) bool) Condition {
	return Condition{
		Property: property,
		Kind:     jsonvalue.KindBool,
		Predicate: func(v jsonvalue.Value) bool {
			b, _ := v.AsBool()
			return pred(b)
		},
	}
}

// WhenNumber keeps the link when pred holds. Literals that do not fit a
// float64 keep the link.
func WhenNumber(property string, pred func(f float64) bool) Condition {
	return Condition{
		Property: property,
		Kind:     jsonvalue.KindNumber,
		Predicate: func(v jsonvalue.Value) bool {
			f, ok := v.AsFloat()
			if !ok {
				return true
			}
			return pred(f)
		},
	}
}

func Equals(want jsonvalue.Value) Predicate {
	return func(v jsonvalue.Value) bool { return jsonvalue.Equal(v, want) }
}

func NotEquals(want jsonvalue.Value) Predicate {
	return func(v jsonvalue.Value) bool { return !jsonvalue.Equal(v, want) }
}

func In(values ...jsonvalue.Value) Predicate {
	return func(v jsonvalue.Value) bool {
		for _, want := range values {
			if jsonvalue.Equal(v, want) {
				return true
			}
		}
		return false
	}
}

func NotIn(values ...jsonvalue.Value) Predicate {
	in := In(values...)
	return func(v jsonvalue.Value) bool { return !in(v) }
}

func (c *Configuration) clone() *Configuration {
	out := &Configuration{
		APITitle:   c.APITitle,
		SchemaName: c.SchemaName,
		Links:      make(map[string]string, len(c.Links)),
		Conditions: make(map[string]Condition, len(c.Conditions)),
	}
	for k, v := range c.Links {
		out.Links[k] = v
	}
	for k, v := range c.Conditions {
		out.Conditions[k] = v
	}
	return out
}

// linkNames returns the set of link names the configuration declares.
func (c *Configuration) linkNames() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Links))
	for _, name := range c.Links {
		out[name] = struct{}{}
	}
	return out
}
