package hateoas

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/jsonvalue"
)

var ErrLinkTargetNotFound = errors.New("link target not found")

// RouteLookup resolves operation ids to path templates.
type RouteLookup interface {
	PathForOperation(operationID string) (string, bool)
}

// GenerateLinks maps each link name of c to the path template of its
// operation. Every unknown operation id is reported; the returned map holds
// the links that did resolve.
func GenerateLinks(c *Configuration, routes RouteLookup) (map[string]string, error) {
	out := make(map[string]string, len(c.Links))
	opIDs := make([]string, 0, len(c.Links))
	for op := range c.Links {
		opIDs = append(opIDs, op)
	}
	sort.Strings(opIDs)

	var errs []error
	for _, op := range opIDs {
		name := c.Links[op]
		path, ok := routes.PathForOperation(op)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: schema %s link %q operation %q", ErrLinkTargetNotFound, c.SchemaName, name, op))
			continue
		}
		out[name] = path
	}
	return out, errors.Join(errs...)
}

// FilterLinks returns a copy of links without the entries whose condition
// rejects obj.
func FilterLinks(c *Configuration, obj *jsonvalue.Object, links map[string]string) map[string]string {
	out := make(map[string]string, len(links))
	for name, tmpl := range links {
		out[name] = tmpl
	}
	for name, cond := range c.Conditions {
		if _, ok := out[name]; !ok {
			continue
		}
		if !cond.Allows(obj) {
			delete(out, name)
		}
	}
	return out
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// Substitute fills {name} tokens of tmpl with the text of obj's fields.
// Tokens without a matching non-null field are left as they are.
func Substitute(tmpl string, obj *jsonvalue.Object) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		v, ok := obj.Get(token[1 : len(token)-1])
		if !ok || v.IsNull() {
			return token
		}
		return v.Text()
	})
}
