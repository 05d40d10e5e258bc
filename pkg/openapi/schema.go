package openapi

import (
	"net/url"
	"strconv"
	"strings"
)

// SchemaRef is a node of the response schema tree. References are followed
// lazily, so recursive component graphs are safe to walk. A nil *SchemaRef is
// valid and describes an unknown schema.
type SchemaRef struct {
	doc      *Document
	schema   *Schema
	identity string
	resolved bool
	target   *Schema
}

func newSchemaRef(doc *Document, s *Schema) *SchemaRef {
	if s == nil {
		return nil
	}
	return &SchemaRef{doc: doc, schema: s}
}

// Identity is the component name of the outermost named reference, or "".
func (r *SchemaRef) Identity() string {
	if r == nil {
		return ""
	}
	r.resolve()
	return r.identity
}

// Child returns the schema of an object property.
func (r *SchemaRef) Child(name string) *SchemaRef {
	if r == nil {
		return nil
	}
	r.resolve()
	return r.child(r.target, name, map[*Schema]bool{})
}

func (r *SchemaRef) child(s *Schema, name string, seen map[*Schema]bool) *SchemaRef {
	if s == nil || seen[s] {
		return nil
	}
	seen[s] = true
	if p, ok := s.Properties[name]; ok && p != nil {
		return newSchemaRef(r.doc, p)
	}
	for _, member := range s.AllOf {
		target, _ := follow(r.doc, member)
		if c := r.child(target, name, seen); c != nil {
			return c
		}
	}
	return nil
}

// Items returns the element schema of an array schema.
func (r *SchemaRef) Items() *SchemaRef {
	if r == nil {
		return nil
	}
	r.resolve()
	if r.target == nil {
		return nil
	}
	return newSchemaRef(r.doc, r.target.Items)
}

// resolve is not synchronized: a SchemaRef lives inside one transform call.
func (r *SchemaRef) resolve() {
	if r.resolved {
		return
	}
	r.resolved = true
	r.target, r.identity = follow(r.doc, r.schema)
}

// follow walks $ref chains and single-reference compositions to the schema
// that actually describes the instance.
func follow(doc *Document, s *Schema) (*Schema, string) {
	identity := ""
	seen := map[string]bool{}
	for s != nil {
		if s.Ref != "" {
			if seen[s.Ref] {
				return nil, identity
			}
			seen[s.Ref] = true
			target, name := doc.lookupRef(s.Ref)
			if identity == "" {
				identity = name
			}
			s = target
			continue
		}
		if single := singleRef(s); single != nil {
			s = single
			continue
		}
		return s, identity
	}
	return nil, identity
}

// singleRef returns the only member of an allOf/oneOf/anyOf list when the
// schema is nothing but a wrapper around one reference.
func singleRef(s *Schema) *Schema {
	if len(s.Properties) > 0 || s.Items != nil {
		return nil
	}
	var found *Schema
	count := 0
	for _, list := range [][]*Schema{s.AllOf, s.OneOf, s.AnyOf} {
		for _, m := range list {
			if m == nil {
				continue
			}
			count++
			if m.Ref != "" {
				found = m
			}
		}
	}
	if count != 1 {
		return nil
	}
	return found
}

// lookupRef resolves a local JSON pointer reference. The returned name is
// set only when the pointer addresses a component schema itself.
// References to other documents are not followed.
func (d *Document) lookupRef(ref string) (*Schema, string) {
	tokens, ok := pointerTokens(ref)
	if !ok || d == nil || len(tokens) < 2 {
		return nil, ""
	}
	var s *Schema
	switch tokens[0] {
	case "components":
		if tokens[1] != "schemas" || len(tokens) < 3 {
			return nil, ""
		}
		s = d.Components.Schemas[tokens[2]]
		if len(tokens) == 3 {
			if s == nil {
				return nil, ""
			}
			return s, tokens[2]
		}
		tokens = tokens[3:]
	case "paths":
		s, tokens = d.responseSchemaAt(tokens[1:])
	default:
		return nil, ""
	}
	return schemaAt(s, tokens), ""
}

// responseSchemaAt consumes <path>/<method>/responses/<code>/content/<media>/schema.
func (d *Document) responseSchemaAt(tokens []string) (*Schema, []string) {
	if len(tokens) < 7 || tokens[2] != "responses" || tokens[4] != "content" || tokens[6] != "schema" {
		return nil, nil
	}
	item, ok := d.Paths[tokens[0]]
	if !ok {
		return nil, nil
	}
	op := item.Operations()[strings.ToUpper(tokens[1])]
	if op == nil {
		return nil, nil
	}
	resp, ok := op.Responses[tokens[3]]
	if !ok {
		return nil, nil
	}
	mt, ok := resp.Content[tokens[5]]
	if !ok {
		return nil, nil
	}
	return mt.Schema, tokens[7:]
}

// schemaAt walks the remaining pointer tokens inside a schema.
func schemaAt(s *Schema, tokens []string) *Schema {
	for len(tokens) > 0 && s != nil {
		switch tokens[0] {
		case "properties":
			if len(tokens) < 2 {
				return nil
			}
			s = s.Properties[tokens[1]]
			tokens = tokens[2:]
		case "items":
			s = s.Items
			tokens = tokens[1:]
		case "allOf", "oneOf", "anyOf":
			if len(tokens) < 2 {
				return nil
			}
			list := map[string][]*Schema{"allOf": s.AllOf, "oneOf": s.OneOf, "anyOf": s.AnyOf}[tokens[0]]
			i, err := strconv.Atoi(tokens[1])
			if err != nil || i < 0 || i >= len(list) {
				return nil
			}
			s = list[i]
			tokens = tokens[2:]
		default:
			return nil
		}
	}
	return s
}

// pointerTokens splits a same-document reference ("#/a/b") into unescaped
// JSON pointer tokens.
func pointerTokens(ref string) ([]string, bool) {
	frag, ok := strings.CutPrefix(ref, "#/")
	if !ok {
		return nil, false
	}
	if u, err := url.PathUnescape(frag); err == nil {
		frag = u
	}
	parts := strings.Split(frag, "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return parts, true
}
