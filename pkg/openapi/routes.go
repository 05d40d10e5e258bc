package openapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrRouteNotFound     = errors.New("route not found")
	ErrUnsupportedMethod = errors.New("unsupported method")
)

// Route is one operation of the document.
type Route struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	OperationID string `json:"operation_id"`
}

type routeKey struct {
	path   string
	method string
}

// RouteTable maps operation ids to path templates and (path, method) pairs to
// response schemas. It is immutable after NewRouteTable returns.
type RouteTable struct {
	doc     *Document
	paths   map[string]string
	schemas map[routeKey]*Schema
	routes  []Route
}

func NewRouteTable(doc *Document) (*RouteTable, error) {
	if doc == nil {
		return nil, errors.New("openapi document is nil")
	}
	t := &RouteTable{
		doc:     doc,
		paths:   map[string]string{},
		schemas: map[routeKey]*Schema{},
	}
	pathKeys := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var errs []error
	for _, p := range pathKeys {
		ops := doc.Paths[p].Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			op := ops[m]
			id := strings.TrimSpace(op.OperationID)
			t.routes = append(t.routes, Route{Path: p, Method: m, OperationID: id})
			if id != "" {
				if prev, dup := t.paths[id]; dup {
					errs = append(errs, fmt.Errorf("duplicate operationId %q on %s and %s %s", id, prev, m, p))
				} else {
					t.paths[id] = p
				}
			}
			if !supportedMethod(m) {
				continue
			}
			if s := t.responseSchema(op); s != nil {
				t.schemas[routeKey{path: p, method: m}] = s
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func supportedMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodPost
}

func (t *RouteTable) responseSchema(op *Operation) *Schema {
	for _, code := range []string{"200", "201"} {
		resp, ok := op.Responses[code]
		if !ok {
			continue
		}
		if resp.Ref != "" {
			name := strings.TrimPrefix(resp.Ref, "#/components/responses/")
			resp = t.doc.Components.Responses[name]
		}
		if s := jsonSchema(resp.Content); s != nil {
			return s
		}
	}
	return nil
}

func jsonSchema(content map[string]MediaType) *Schema {
	if mt, ok := content["application/json"]; ok && mt.Schema != nil {
		return mt.Schema
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ct := strings.ToLower(strings.TrimSpace(strings.SplitN(k, ";", 2)[0]))
		if (ct == "application/json" || strings.HasSuffix(ct, "+json")) && content[k].Schema != nil {
			return content[k].Schema
		}
	}
	if mt, ok := content["*/*"]; ok && mt.Schema != nil {
		return mt.Schema
	}
	return nil
}

// Title is the document's info.title.
func (t *RouteTable) Title() string {
	if t == nil {
		return ""
	}
	return t.doc.Info.Title
}

// PathForOperation returns the path template of an operation id.
func (t *RouteTable) PathForOperation(operationID string) (string, bool) {
	if t == nil {
		return "", false
	}
	p, ok := t.paths[operationID]
	return p, ok
}

// SchemaForRoute returns the response schema of an exact path template and
// method. Only GET and POST are supported.
func (t *RouteTable) SchemaForRoute(path, method string) (*SchemaRef, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if !supportedMethod(m) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrRouteNotFound, m, path)
	}
	s, ok := t.schemas[routeKey{path: path, method: m}]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrRouteNotFound, m, path)
	}
	return newSchemaRef(t.doc, s), nil
}

// Routes lists every operation sorted by path then method.
func (t *RouteTable) Routes() []Route {
	if t == nil {
		return nil
	}
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}
