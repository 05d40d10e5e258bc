package hateoas

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/jsonvalue"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/openapi"
)

const (
	LinksKey    = "_links"
	EmbeddedKey = "_embedded"
)

var ErrUnsupportedRoot = errors.New("unsupported root: response must be a JSON object")

// Routes is the view of the OpenAPI route table the engine needs.
type Routes interface {
	RouteLookup
	SchemaForRoute(path, method string) (*openapi.SchemaRef, error)
	Title() string
}

// Stats counts what one Transform call did.
type Stats struct {
	ObjectsVisited   int
	ObjectsDecorated int
	LinksEmitted     int
	LinksSuppressed  int
	// Unconfigured counts objects whose schema identity has no configuration.
	Unconfigured int
}

// Engine is an immutable snapshot of route table, registry and the link
// templates generated for every configuration. Safe for concurrent use.
type Engine struct {
	routes    Routes
	registry  *Registry
	templates map[string]map[string]string
	warnings  []string
}

// NewEngine generates the links of every configuration up front. Unknown
// operation ids fail the build; dangling conditions and API title mismatches
// are returned as warnings.
func NewEngine(routes Routes, registry *Registry) (*Engine, error) {
	if routes == nil {
		return nil, errors.New("routes are nil")
	}
	if registry == nil {
		registry = &Registry{configs: map[string]*Configuration{}}
	}
	e := &Engine{
		routes:    routes,
		registry:  registry,
		templates: make(map[string]map[string]string, len(registry.configs)),
	}
	var errs []error
	title := strings.TrimSpace(routes.Title())
	for _, c := range registry.Configurations() {
		links, err := GenerateLinks(c, routes)
		if err != nil {
			errs = append(errs, err)
		}
		e.templates[normalizeSchemaName(c.SchemaName)] = links

		names := c.linkNames()
		dangling := make([]string, 0)
		for name := range c.Conditions {
			if _, ok := names[name]; !ok {
				dangling = append(dangling, name)
			}
		}
		sort.Strings(dangling)
		for _, name := range dangling {
			e.warnings = append(e.warnings, fmt.Sprintf("schema %s: condition on link %q matches no declared link", c.SchemaName, name))
		}
		if t := strings.TrimSpace(c.APITitle); t != "" && title != "" && !strings.EqualFold(t, title) {
			e.warnings = append(e.warnings, fmt.Sprintf("schema %s: api title %q differs from document title %q", c.SchemaName, t, title))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return e, nil
}

func (e *Engine) Warnings() []string {
	out := make([]string, len(e.warnings))
	copy(out, e.warnings)
	return out
}

func (e *Engine) Registry() *Registry { return e.registry }

func (e *Engine) Routes() Routes { return e.routes }

// Decorate decodes body, transforms it with the response schema of the path
// template and method, and encodes the result.
func (e *Engine) Decorate(ctx context.Context, body []byte, pathTemplate, method string) ([]byte, Stats, error) {
	schema, err := e.routes.SchemaForRoute(pathTemplate, method)
	if err != nil {
		return nil, Stats{}, err
	}
	return e.DecorateBody(ctx, body, schema)
}

// DecorateBody is Decorate with the root schema already resolved.
func (e *Engine) DecorateBody(ctx context.Context, body []byte, schema *openapi.SchemaRef) ([]byte, Stats, error) {
	v, err := jsonvalue.Decode(body)
	if err != nil {
		return nil, Stats{}, err
	}
	out, stats, err := e.Transform(ctx, v, schema)
	if err != nil {
		return nil, stats, err
	}
	return jsonvalue.Encode(out), stats, nil
}

// Transform returns a decorated copy of v; v is not modified. Root arrays are
// rejected. Root scalars and null come back unchanged.
func (e *Engine) Transform(ctx context.Context, v jsonvalue.Value, schema *openapi.SchemaRef) (jsonvalue.Value, Stats, error) {
	if v.Kind() == jsonvalue.KindArray {
		return jsonvalue.Value{}, Stats{}, ErrUnsupportedRoot
	}
	w := &walker{ctx: ctx, engine: e}
	out, err := w.node(v, schema)
	if err != nil {
		return jsonvalue.Value{}, w.stats, err
	}
	return out, w.stats, nil
}

type walker struct {
	ctx    context.Context
	engine *Engine
	stats  Stats
}

func (w *walker) node(v jsonvalue.Value, schema *openapi.SchemaRef) (jsonvalue.Value, error) {
	if err := w.ctx.Err(); err != nil {
		return jsonvalue.Value{}, err
	}
	switch v.Kind() {
	case jsonvalue.KindObject:
		obj, _ := v.Object()
		return w.object(obj, schema)
	case jsonvalue.KindArray:
		items, _ := v.Items()
		return w.array(items, schema.Items())
	default:
		return v, nil
	}
}

func (w *walker) array(items []jsonvalue.Value, itemSchema *openapi.SchemaRef) (jsonvalue.Value, error) {
	out := make([]jsonvalue.Value, 0, len(items))
	for _, item := range items {
		t, err := w.node(item, itemSchema)
		if err != nil {
			return jsonvalue.Value{}, err
		}
		out = append(out, t)
	}
	return jsonvalue.Array(out...), nil
}

func (w *walker) object(in *jsonvalue.Object, schema *openapi.SchemaRef) (jsonvalue.Value, error) {
	w.stats.ObjectsVisited++
	links := w.links(in, schema)

	out := jsonvalue.NewObject()
	var embedded *jsonvalue.Object
	for _, m := range in.Members() {
		switch m.Value.Kind() {
		case jsonvalue.KindNull:
			continue
		case jsonvalue.KindObject, jsonvalue.KindArray:
			t, err := w.node(m.Value, schema.Child(m.Key))
			if err != nil {
				return jsonvalue.Value{}, err
			}
			if m.Value.Kind() == jsonvalue.KindArray {
				if embedded == nil {
					embedded = jsonvalue.NewObject()
				}
				embedded.Set(m.Key, t)
				continue
			}
			out.Set(m.Key, t)
		default:
			out.Set(m.Key, m.Value)
		}
	}
	if embedded != nil {
		out.Delete(EmbeddedKey)
		out.Set(EmbeddedKey, jsonvalue.ObjectValue(embedded))
	}
	if len(links) > 0 {
		names := make([]string, 0, len(links))
		for name := range links {
			names = append(names, name)
		}
		sort.Strings(names)
		rendered := jsonvalue.NewObject()
		for _, name := range names {
			rendered.Set(name, jsonvalue.String(Substitute(links[name], in)))
		}
		out.Delete(LinksKey)
		out.Set(LinksKey, jsonvalue.ObjectValue(rendered))
		w.stats.ObjectsDecorated++
		w.stats.LinksEmitted += len(names)
	}
	return jsonvalue.ObjectValue(out), nil
}

// links computes the filtered link templates of one object from its own
// fields.
func (w *walker) links(obj *jsonvalue.Object, schema *openapi.SchemaRef) map[string]string {
	identity := schema.Identity()
	if identity == "" {
		return nil
	}
	c, err := w.engine.registry.Resolve(identity)
	if err != nil {
		w.stats.Unconfigured++
		return nil
	}
	templates := w.engine.templates[normalizeSchemaName(c.SchemaName)]
	if len(templates) == 0 {
		return nil
	}
	filtered := FilterLinks(c, obj, templates)
	w.stats.LinksSuppressed += len(templates) - len(filtered)
	return filtered
}
