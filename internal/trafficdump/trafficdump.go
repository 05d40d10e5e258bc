// Package trafficdump writes one file per request with the client request,
// the upstream exchange and the decorated response, for debugging link
// configurations.
package trafficdump

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/requestid"
)

const ctxKeyRecorder = "hgw.traffic_dump_recorder"

type Config struct {
	Enabled     bool
	Dir         string
	FilePath    string
	MaxBytes    int
	MaskSecrets bool
}

type Recorder struct {
	mu       sync.Mutex
	f        *os.File
	maxBytes int
	mask     bool
	closed   bool
}

// RequestID returns the request id of c, generating one when missing.
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v := strings.TrimSpace(c.GetString(requestid.HeaderKey)); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.GetHeader(requestid.HeaderKey)); v != "" {
		return v
	}
	id := requestid.Gen()
	c.Set(requestid.HeaderKey, id)
	c.Header(requestid.HeaderKey, id)
	return id
}

// Start opens the dump file of the current request and writes the META
// section. cfg.FilePath is a text/template with {{.request_id}}.
func Start(c *gin.Context, cfg Config) (*Recorder, error) {
	if c == nil {
		return nil, errors.New("context is nil")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("traffic_dump.dir is empty")
	}
	if strings.TrimSpace(cfg.FilePath) == "" {
		return nil, errors.New("traffic_dump.file_path is empty")
	}
	if cfg.MaxBytes < 0 {
		return nil, errors.New("traffic_dump.max_bytes must be non-negative")
	}

	rid := RequestID(c)
	tmpl, err := template.New("path").Parse(cfg.FilePath)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{"request_id": rid}); err != nil {
		return nil, err
	}

	dir := strings.TrimSpace(cfg.Dir)
	path := filepath.Join(dir, buf.String())
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	// #nosec G304 -- path is derived from configured dump dir and template.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		f:        f,
		maxBytes: cfg.MaxBytes,
		mask:     cfg.MaskSecrets,
	}
	c.Set(ctxKeyRecorder, r)

	r.writeLine("=== META ===")
	r.writeLine(fmt.Sprintf("time=%s", time.Now().Format(time.RFC3339)))
	r.writeLine(fmt.Sprintf("request_id=%s", rid))
	r.writeLine(fmt.Sprintf("method=%s", c.Request.Method))
	r.writeLine(fmt.Sprintf("path=%s", maskURLIfNeeded(c.Request.URL.String(), r.mask)))
	r.writeLine(fmt.Sprintf("client_ip=%s", c.ClientIP()))
	r.writeLine("headers:")
	r.writeHeaders(c.Request.Header)
	r.writeLine("")

	return r, nil
}

func FromContext(c *gin.Context) *Recorder {
	if c == nil {
		return nil
	}
	v, ok := c.Get(ctxKeyRecorder)
	if !ok {
		return nil
	}
	rec, _ := v.(*Recorder)
	return rec
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	_ = r.f.Close()
}

func (r *Recorder) MaxBytes() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxBytes
}

func (r *Recorder) writeLine(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	_, _ = r.f.WriteString(s)
	_, _ = r.f.WriteString("\n")
}

// writeHeaders prints headers sorted by name so dumps diff cleanly.
func (r *Recorder) writeHeaders(h map[string][]string) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			r.writeLine(fmt.Sprintf("  %s: %s", k, maskIfNeeded(k, v, r.mask)))
		}
	}
}

func (r *Recorder) writeBlock(title string, content []byte, truncated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if title != "" {
		_, _ = r.f.WriteString(title)
		_, _ = r.f.WriteString("\n")
	}
	_, _ = r.f.Write(content)
	if len(content) == 0 || content[len(content)-1] != '\n' {
		_, _ = r.f.WriteString("\n")
	}
	if truncated {
		_, _ = r.f.WriteString("[truncated]\n")
	}
	_, _ = r.f.WriteString("\n")
}

func (r *Recorder) limited(body []byte) ([]byte, bool) {
	return LimitBytes(body, r.MaxBytes())
}

func maskIfNeeded(key, val string, on bool) string {
	if !on {
		return val
	}
	lk := strings.ToLower(key)
	if strings.Contains(lk, "authorization") ||
		strings.Contains(lk, "api-key") ||
		lk == "cookie" ||
		lk == "set-cookie" ||
		strings.Contains(lk, "token") {
		return "[REDACTED]"
	}
	return val
}

func maskURLIfNeeded(rawURL string, on bool) string {
	if !on {
		return rawURL
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if len(q) == 0 {
		return rawURL
	}

	shouldRedactKey := func(k string) bool {
		lk := strings.ToLower(strings.TrimSpace(k))
		if lk == "" {
			return false
		}
		if lk == "key" || lk == "api_key" || lk == "apikey" {
			return true
		}
		return strings.Contains(lk, "token") || strings.Contains(lk, "secret")
	}

	changed := false
	for k := range q {
		if !shouldRedactKey(k) {
			continue
		}
		q.Set(k, "[REDACTED]")
		changed = true
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func AppendOriginRequest(c *gin.Context, body []byte) {
	if r := FromContext(c); r != nil {
		b, truncated := r.limited(body)
		r.writeBlock("=== ORIGIN REQUEST ===", b, truncated)
	}
}

func AppendUpstreamRequest(c *gin.Context, method string, url string, headers map[string][]string) {
	if r := FromContext(c); r != nil {
		r.writeLine("=== UPSTREAM REQUEST ===")
		r.writeLine(fmt.Sprintf("%s %s", method, maskURLIfNeeded(url, r.mask)))
		r.writeHeaders(headers)
		r.writeLine("")
	}
}

func AppendUpstreamResponse(c *gin.Context, statusLine string, headers map[string][]string, body []byte) {
	if r := FromContext(c); r != nil {
		r.writeLine("=== UPSTREAM RESPONSE ===")
		r.writeLine(statusLine)
		r.writeHeaders(headers)
		r.writeLine("")
		b, truncated := r.limited(body)
		r.writeBlock("", b, truncated)
	}
}

// AppendGatewayResponse records what the gateway wrote back, with the route
// template it decorated against and the transform counters.
func AppendGatewayResponse(c *gin.Context, statusCode int, route string, summary map[string]int, body []byte) {
	if r := FromContext(c); r != nil {
		r.writeLine("=== GATEWAY RESPONSE ===")
		r.writeLine(fmt.Sprintf("status=%d", statusCode))
		if route != "" {
			r.writeLine(fmt.Sprintf("route=%s", route))
		}
		keys := make([]string, 0, len(summary))
		for k := range summary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			r.writeLine(fmt.Sprintf("%s=%d", k, summary[k]))
		}
		r.writeLine("")
		b, truncated := r.limited(body)
		r.writeBlock("", b, truncated)
	}
}

func LimitBytes(b []byte, max int) (out []byte, truncated bool) {
	if max <= 0 {
		return nil, false
	}
	if len(b) <= max {
		return b, false
	}
	return b[:max], true
}
