package gatewayserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/config"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/metrics"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/resources"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/openapi"
)

// DocumentSource returns the file or URL the OpenAPI document is read from.
func DocumentSource(cfg *config.Config) string {
	if f := strings.TrimSpace(cfg.OpenAPI.File); f != "" {
		return f
	}
	return strings.TrimSpace(cfg.OpenAPI.URL)
}

// LoadEngine reads the OpenAPI document and the link configurations and
// builds a validated engine snapshot. Warnings are logged, not returned.
func LoadEngine(ctx context.Context, cfg *config.Config, client *http.Client) (*hateoas.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.OpenAPI.TimeoutMs) * time.Millisecond}
	}
	src := DocumentSource(cfg)
	doc, err := openapi.Load(ctx, client, src)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	routes, err := openapi.NewRouteTable(doc)
	if err != nil {
		return nil, fmt.Errorf("openapi document %s: %w", src, err)
	}

	configs := resources.Builtin()
	if f := strings.TrimSpace(cfg.Links.File); f != "" {
		extra, err := hateoas.LoadLinkFile(f)
		if err != nil {
			return nil, err
		}
		configs = append(configs, extra...)
	}
	registry, err := hateoas.NewRegistry(configs...)
	if err != nil {
		return nil, fmt.Errorf("link configurations: %w", err)
	}
	engine, err := hateoas.NewEngine(routes, registry)
	if err != nil {
		return nil, fmt.Errorf("link configurations: %w", err)
	}

	for _, w := range engine.Warnings() {
		log.Printf("warning: %s", w)
	}
	if want := strings.TrimSpace(cfg.Upstream.APITitle); want != "" && !strings.EqualFold(want, routes.Title()) {
		log.Printf("warning: upstream.api_title %q differs from document title %q", want, routes.Title())
	}
	return engine, nil
}

// reloader rebuilds the engine and swaps it in when the build succeeds.
// Reloads are serialized.
type reloader struct {
	mu      sync.Mutex
	cfg     *config.Config
	st      *state
	client  *http.Client
	metrics *metrics.Metrics
}

func (r *reloader) Reload(ctx context.Context, trigger string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := LoadEngine(ctx, r.cfg, r.client)
	r.metrics.ObserveReload(trigger, err)
	if err != nil {
		log.Printf("reload (%s) failed: %v", trigger, err)
		return err
	}
	r.st.SetEngine(e)
	log.Printf("reload (%s) ok: %d configurations", trigger, len(e.Registry().ListSchemaNames()))
	return nil
}
