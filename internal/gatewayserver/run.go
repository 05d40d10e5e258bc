// Package gatewayserver runs the HTTP gateway that forwards requests to the
// downstream API and decorates its JSON responses with hypermedia links.
package gatewayserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/config"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/logx"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/metrics"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/proxy"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/version"
)

func Run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	accessLogger, accessClose, accessColor, err := openAccessLogger(cfg)
	if err != nil {
		return fmt.Errorf("init access log: %w", err)
	}
	if accessClose != nil {
		defer func() { _ = accessClose.Close() }()
	}

	pidCleanup, err := writePIDFile(cfg)
	if err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	if pidCleanup != nil {
		defer func() { _ = pidCleanup.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	router, err := NewRouter(srv, accessLogger, accessColor)
	if err != nil {
		return err
	}

	var handler http.Handler = router
	if cfg.Server.H2C {
		handler = h2c.NewHandler(router, &http2.Server{})
	}
	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("hateoas-gateway %s listening on %s (upstream %s, %d routes)",
			version.Short(), cfg.Server.Listen, cfg.Upstream.BaseURL, len(srv.bindings))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutMs)*time.Millisecond)
		defer cancel()
		log.Printf("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return reloadOnSignal(gctx, srv.reloader)
	})
	if files := watchedFiles(cfg.OpenAPI.File, cfg.OpenAPI.Watch, cfg.Links.File, cfg.Links.Watch); len(files) > 0 {
		g.Go(func() error {
			return watchFiles(gctx, files, func(ctx context.Context) error {
				return srv.reloader.Reload(ctx, "watch")
			})
		})
	}
	return g.Wait()
}

// newServer builds the initial engine and everything the handlers share.
func newServer(ctx context.Context, cfg *config.Config) (*server, error) {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	docClient := &http.Client{Timeout: time.Duration(cfg.OpenAPI.TimeoutMs) * time.Millisecond}
	engine, err := LoadEngine(ctx, cfg, docClient)
	if err != nil {
		return nil, err
	}
	st := newState(engine)
	return &server{
		cfg: cfg,
		st:  st,
		proxy: &proxy.Client{
			HTTP:         &http.Client{Timeout: time.Duration(cfg.Upstream.TimeoutMs) * time.Millisecond},
			BaseURL:      cfg.Upstream.BaseURL,
			MaxBodyBytes: cfg.Upstream.MaxBodyBytes,
		},
		metrics:  m,
		reloader: &reloader{cfg: cfg, st: st, client: docClient, metrics: m},
		bindings: bindingsFor(cfg, engine),
	}, nil
}

func reloadOnSignal(ctx context.Context, r *reloader) error {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGHUP)
	defer signal.Stop(ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			_ = r.Reload(ctx, "signal")
		}
	}
}

func openAccessLogger(cfg *config.Config) (*log.Logger, io.Closer, bool, error) {
	if cfg == nil || !cfg.Logging.AccessLog {
		return nil, nil, false, nil
	}

	path := strings.TrimSpace(cfg.Logging.AccessLogPath)
	if path == "" {
		return log.New(os.Stdout, "", 0), nil, logx.ColorEnabled(), nil
	}

	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, false, err
		}
	}
	// #nosec G304 -- access_log_path comes from trusted config/env.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, false, err
	}
	return log.New(f, "", 0), f, false, nil
}

type closerFunc func() error

func (c closerFunc) Close() error { return c() }

func writePIDFile(cfg *config.Config) (io.Closer, error) {
	if cfg == nil {
		return nil, nil
	}
	path := strings.TrimSpace(cfg.Server.PidFile)
	if path == "" {
		return nil, nil
	}
	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	tmp := path + ".tmp"
	pid := strconv.Itoa(os.Getpid()) + "\n"
	// #nosec G304 -- pid_file comes from trusted config/env.
	if err := os.WriteFile(tmp, []byte(pid), 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	return closerFunc(func() error { return os.Remove(path) }), nil
}
