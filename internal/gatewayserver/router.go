package gatewayserver

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/auth"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/config"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/metrics"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/proxy"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/version"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/openapi"
)

type server struct {
	cfg      *config.Config
	st       *state
	proxy    *proxy.Client
	metrics  *metrics.Metrics
	reloader *reloader
	bindings []binding
}

type routeLister interface {
	Routes() []openapi.Route
}

// bindingsFor returns the configured routes or, when none are configured,
// every GET and POST operation of the document that has a JSON response
// schema, exposed under its own path.
func bindingsFor(cfg *config.Config, e *hateoas.Engine) []binding {
	var out []binding
	if len(cfg.Routes) > 0 {
		for _, r := range cfg.Routes {
			for _, m := range r.Methods {
				out = append(out, binding{Path: proxy.GinPath(r.Path), Method: m, Downstream: r.DownstreamPath})
			}
		}
		return out
	}
	lister, ok := e.Routes().(routeLister)
	if !ok {
		return nil
	}
	for _, r := range lister.Routes() {
		if _, err := e.Routes().SchemaForRoute(r.Path, r.Method); err != nil {
			continue
		}
		out = append(out, binding{Path: proxy.GinPath(r.Path), Method: r.Method, Downstream: r.Path})
	}
	return out
}

// NewRouter registers middleware, health, metrics, admin and the proxied
// routes. Route conflicts gin rejects are returned as errors.
func NewRouter(s *server, accessLogger *log.Logger, accessColor bool) (*gin.Engine, error) {
	r := gin.New()
	r.Use(requestIDMiddleware())
	if s.cfg.Logging.AccessLog {
		r.Use(requestLoggerWithColor(accessLogger, accessColor))
	}
	r.Use(gin.Recovery())
	if s.cfg.TrafficDump.Enabled {
		r.Use(trafficDumpMiddleware(s.cfg))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if s.cfg.Metrics.Enabled && s.metrics != nil {
		r.GET(s.cfg.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	if s.cfg.Auth.APIKey != "" {
		admin := r.Group("/admin")
		admin.Use(auth.Middleware(s.cfg.Auth.APIKey))
		admin.GET("/routes", s.adminRoutes)
		admin.POST("/reload", s.adminReload)
	}

	for _, b := range s.bindings {
		if err := handle(r, b.Method, b.Path, s.proxyHandler(b)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// handle registers one route, turning gin's registration panics (for
// example conflicting wildcard names) into errors.
func handle(r *gin.Engine, method, path string, h gin.HandlerFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("register %s %s: %v", method, path, p)
		}
	}()
	r.Handle(method, path, h)
	return nil
}

func (s *server) adminRoutes(c *gin.Context) {
	e := s.st.Engine()
	var ops []openapi.Route
	if lister, ok := e.Routes().(routeLister); ok {
		ops = lister.Routes()
	}
	c.JSON(http.StatusOK, gin.H{
		"title":      e.Routes().Title(),
		"bindings":   s.bindings,
		"operations": ops,
		"schemas":    e.Registry().ListSchemaNames(),
		"warnings":   e.Warnings(),
		"loaded_at":  s.st.LoadedAt().UTC(),
		"started_at": s.st.StartedAt().UTC(),
		"version":    version.Get(),
	})
}

func (s *server) adminReload(c *gin.Context) {
	if err := s.reloader.Reload(c.Request.Context(), "admin"); err != nil {
		writeError(c, http.StatusInternalServerError, "server_error", "reload_failed", err.Error())
		return
	}
	e := s.st.Engine()
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"schemas":  e.Registry().ListSchemaNames(),
		"warnings": e.Warnings(),
	})
}
