package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Listen            string `yaml:"listen"`
		ReadTimeoutMs     int    `yaml:"read_timeout_ms"`
		WriteTimeoutMs    int    `yaml:"write_timeout_ms"`
		ShutdownTimeoutMs int    `yaml:"shutdown_timeout_ms"`
		PidFile           string `yaml:"pid_file"`
		// H2C serves HTTP/2 without TLS next to HTTP/1.1.
		H2C bool `yaml:"h2c"`
	} `yaml:"server"`

	Upstream struct {
		BaseURL string `yaml:"base_url"`
		// APITitle is compared with the OpenAPI info.title of the upstream.
		APITitle     string `yaml:"api_title"`
		TimeoutMs    int    `yaml:"timeout_ms"`
		MaxBodyBytes int64  `yaml:"max_body_bytes"`
	} `yaml:"upstream"`

	OpenAPI struct {
		// URL or File; when both are empty the document is fetched from
		// <base_url>/swagger/v1/swagger.json.
		URL       string `yaml:"url"`
		File      string `yaml:"file"`
		TimeoutMs int    `yaml:"timeout_ms"`
		Watch     bool   `yaml:"watch"`
	} `yaml:"openapi"`

	Links struct {
		// File is an optional YAML file of extra link configurations.
		File  string `yaml:"file"`
		Watch bool   `yaml:"watch"`
	} `yaml:"links"`

	// Routes exposed by the gateway. When empty, every GET and POST
	// operation of the document is exposed under its own path.
	Routes []Route `yaml:"routes"`

	Auth struct {
		// APIKey guards /admin endpoints. Admin endpoints are disabled when empty.
		APIKey string `yaml:"api_key"`
	} `yaml:"auth"`

	TrafficDump struct {
		Enabled     bool   `yaml:"enabled"`
		Dir         string `yaml:"dir"`
		FilePath    string `yaml:"file_path"`
		MaxBytes    int    `yaml:"max_bytes"`
		MaskSecrets bool   `yaml:"mask_secrets"`
	} `yaml:"traffic_dump"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Logging struct {
		AccessLog     bool   `yaml:"access_log"`
		AccessLogPath string `yaml:"access_log_path"`
	} `yaml:"logging"`
}

type Route struct {
	// Path is the client-facing path, in `{param}` or gin `:param` syntax.
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
	// DownstreamPath is the OpenAPI path template of the upstream operation.
	// Defaults to Path.
	DownstreamPath string `yaml:"downstream_path"`
}

func Load(path string) (*Config, error) {
	// #nosec G304 -- config path comes from the command line.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := newWithBoolDefaults()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	applyDerived(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newWithBoolDefaults presets booleans that default to true, so an explicit
// `false` in the file survives.
func newWithBoolDefaults() *Config {
	cfg := &Config{}
	cfg.TrafficDump.MaskSecrets = true
	cfg.Metrics.Enabled = true
	cfg.Logging.AccessLog = true
	return cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.ReadTimeoutMs <= 0 {
		cfg.Server.ReadTimeoutMs = 60000
	}
	if cfg.Server.WriteTimeoutMs <= 0 {
		cfg.Server.WriteTimeoutMs = 60000
	}
	if cfg.Server.ShutdownTimeoutMs <= 0 {
		cfg.Server.ShutdownTimeoutMs = 10000
	}
	if cfg.Upstream.TimeoutMs <= 0 {
		cfg.Upstream.TimeoutMs = 30000
	}
	if cfg.Upstream.MaxBodyBytes <= 0 {
		cfg.Upstream.MaxBodyBytes = 16 << 20
	}
	if cfg.OpenAPI.TimeoutMs <= 0 {
		cfg.OpenAPI.TimeoutMs = 10000
	}
	if strings.TrimSpace(cfg.TrafficDump.Dir) == "" {
		cfg.TrafficDump.Dir = "./dumps"
	}
	if strings.TrimSpace(cfg.TrafficDump.FilePath) == "" {
		cfg.TrafficDump.FilePath = "{{.request_id}}.log"
	}
	if cfg.TrafficDump.MaxBytes == 0 {
		cfg.TrafficDump.MaxBytes = 1 * 1024 * 1024
	}
	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("HGW_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("HGW_PID_FILE")); v != "" {
		cfg.Server.PidFile = v
	}
	cfg.Server.H2C = envBool("HGW_H2C", cfg.Server.H2C)
	if v := strings.TrimSpace(os.Getenv("HGW_API_KEY")); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("HGW_UPSTREAM_BASE_URL")); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("HGW_OPENAPI_URL")); v != "" {
		cfg.OpenAPI.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("HGW_OPENAPI_FILE")); v != "" {
		cfg.OpenAPI.File = v
	}
	if v := strings.TrimSpace(os.Getenv("HGW_LINKS_FILE")); v != "" {
		cfg.Links.File = v
	}
	cfg.TrafficDump.Enabled = envBool("HGW_TRAFFIC_DUMP_ENABLED", cfg.TrafficDump.Enabled)
	if v := strings.TrimSpace(os.Getenv("HGW_TRAFFIC_DUMP_DIR")); v != "" {
		cfg.TrafficDump.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("HGW_TRAFFIC_DUMP_MAX_BYTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TrafficDump.MaxBytes = n
		}
	}
	cfg.TrafficDump.MaskSecrets = envBool("HGW_TRAFFIC_DUMP_MASK_SECRETS", cfg.TrafficDump.MaskSecrets)
	cfg.Metrics.Enabled = envBool("HGW_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Logging.AccessLog = envBool("HGW_ACCESS_LOG", cfg.Logging.AccessLog)
	if v := strings.TrimSpace(os.Getenv("HGW_ACCESS_LOG_PATH")); v != "" {
		cfg.Logging.AccessLogPath = v
	}
	if v := strings.TrimSpace(os.Getenv("HGW_UPSTREAM_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Upstream.TimeoutMs = n
		}
	}
}

// applyDerived fills defaults that depend on other, possibly overridden,
// settings.
func applyDerived(cfg *Config) {
	cfg.Upstream.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Upstream.BaseURL), "/")
	if strings.TrimSpace(cfg.OpenAPI.URL) == "" && strings.TrimSpace(cfg.OpenAPI.File) == "" && cfg.Upstream.BaseURL != "" {
		cfg.OpenAPI.URL = cfg.Upstream.BaseURL + "/swagger/v1/swagger.json"
	}
	for i := range cfg.Routes {
		r := &cfg.Routes[i]
		r.Path = strings.TrimSpace(r.Path)
		r.DownstreamPath = strings.TrimSpace(r.DownstreamPath)
		if r.DownstreamPath == "" {
			r.DownstreamPath = r.Path
		}
		if len(r.Methods) == 0 {
			r.Methods = []string{http.MethodGet}
		}
		for j, m := range r.Methods {
			r.Methods[j] = strings.ToUpper(strings.TrimSpace(m))
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required (or set HGW_UPSTREAM_BASE_URL)")
	}
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q must be an absolute http(s) url", cfg.Upstream.BaseURL)
	}
	if cfg.OpenAPI.URL != "" && cfg.OpenAPI.File != "" {
		return errors.New("openapi.url and openapi.file are mutually exclusive")
	}
	if cfg.TrafficDump.MaxBytes < 0 {
		return errors.New("traffic_dump.max_bytes must be non-negative")
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", cfg.Metrics.Path)
	}
	for i, r := range cfg.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("routes[%d].path %q must start with /", i, r.Path)
		}
		if !strings.HasPrefix(r.DownstreamPath, "/") {
			return fmt.Errorf("routes[%d].downstream_path %q must start with /", i, r.DownstreamPath)
		}
		for _, m := range r.Methods {
			if m != http.MethodGet && m != http.MethodPost {
				return fmt.Errorf("routes[%d] method %q is not supported (GET and POST only)", i, m)
			}
		}
	}
	return nil
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
