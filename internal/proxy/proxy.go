// Package proxy forwards client requests to the downstream API and buffers
// the response so it can be decorated before it is written back.
package proxy

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/requestid"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/trafficdump"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/version"
)

// hopHeaders are not forwarded in either direction. Accept-Encoding is
// dropped on the way out so the downstream answers with a plain body the
// transformer can read.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

type Client struct {
	HTTP         *http.Client
	BaseURL      string
	MaxBodyBytes int64
}

type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// IsJSON reports whether the response declares a JSON media type.
func (r *Response) IsJSON() bool {
	if r == nil {
		return false
	}
	ct := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

// Forward sends the request of gc to downstreamPath on the configured base
// URL, keeping the query string, and returns the buffered response.
func (c *Client) Forward(gc *gin.Context, downstreamPath string) (*Response, error) {
	if c == nil || c.HTTP == nil {
		return nil, errors.New("proxy client is not configured")
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return nil, errors.New("upstream base_url is empty")
	}

	var body []byte
	if gc.Request.Body != nil && gc.Request.Body != http.NoBody {
		b, err := readAllLimit(gc.Request.Body, c.MaxBodyBytes)
		_ = gc.Request.Body.Close()
		if err != nil {
			if errors.Is(err, ErrBodyTooLarge) {
				return nil, fmt.Errorf("%w: limit is %d bytes", ErrRequestTooLarge, c.MaxBodyBytes)
			}
			if isClientDisconnectErr(err) {
				return nil, fmt.Errorf("%w: %v", ErrClientGone, err)
			}
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = b
	}
	trafficdump.AppendOriginRequest(gc, body)

	target := base + downstreamPath
	if q := gc.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}

	ctx := gc.Request.Context()
	req, err := http.NewRequestWithContext(ctx, gc.Request.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		req.Body = http.NoBody
	}
	copyHeaders(req.Header, gc.Request.Header)
	req.Header.Del("Accept-Encoding")
	req.Header.Del("Content-Length")
	if rid := strings.TrimSpace(gc.GetString(requestid.HeaderKey)); rid != "" {
		req.Header.Set(requestid.HeaderKey, rid)
	}
	if ip := gc.ClientIP(); ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	req.Header.Add("Via", version.Via())
	trafficdump.AppendUpstreamRequest(gc, req.Method, target, req.Header)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil || isClientDisconnectErr(err) {
			return nil, fmt.Errorf("%w: %v", ErrClientGone, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := readAllLimit(resp.Body, c.MaxBodyBytes)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return nil, fmt.Errorf("upstream response: %w", err)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrClientGone, err)
		}
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstreamUnavailable, err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     make(http.Header, len(resp.Header)),
		Body:       respBody,
	}
	copyHeaders(out.Header, resp.Header)
	trafficdump.AppendUpstreamResponse(gc, resp.Proto+" "+resp.Status, resp.Header, respBody)
	return out, nil
}

// WriteHeaders copies the downstream headers onto w, leaving out the ones
// the gateway recomputes.
func (r *Response) WriteHeaders(w http.Header) {
	for k, vs := range r.Header {
		switch http.CanonicalHeaderKey(k) {
		case "Content-Length", "Content-Encoding":
			continue
		}
		for _, v := range vs {
			w.Add(k, v)
		}
	}
}

func copyHeaders(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	for _, h := range hopHeaders {
		dst.Del(h)
	}
	// Headers named by Connection are hop-by-hop too.
	for _, v := range src.Values("Connection") {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				dst.Del(f)
			}
		}
	}
}

// ExpandPath fills `{name}` segments of an OpenAPI path template with
// path-escaped gin parameters. Unknown names stay as written.
func ExpandPath(tmpl string, params gin.Params) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += open
		name := rest[open+1 : end]
		b.WriteString(rest[:open])
		if v, ok := params.Get(name); ok {
			b.WriteString(url.PathEscape(v))
		} else {
			b.WriteString(rest[open : end+1])
		}
		rest = rest[end+1:]
	}
	return b.String()
}

// GinPath converts `{name}` segments to gin's `:name` syntax.
func GinPath(tmpl string) string {
	parts := strings.Split(tmpl, "/")
	for i, p := range parts {
		if len(p) > 2 && strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			parts[i] = ":" + p[1:len(p)-1]
		}
	}
	return strings.Join(parts, "/")
}
