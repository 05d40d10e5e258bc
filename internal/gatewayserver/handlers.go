package gatewayserver

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/proxy"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/requestid"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/trafficdump"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/jsonvalue"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/openapi"
)

// Context keys read by the request logger.
const (
	ctxRoute          = "hgw.route"
	ctxOutcome        = "hgw.outcome"
	ctxUpstreamStatus = "hgw.upstream_status"
	ctxStats          = "hgw.stats"
)

const (
	outcomeDecorated   = "decorated"
	outcomePassthrough = "passthrough"
	outcomeClientGone  = "client_gone"
)

// statusClientClosedRequest is recorded for requests the client abandoned.
const statusClientClosedRequest = 499

// binding ties a gateway route to the OpenAPI path template it is
// forwarded to and decorated against.
type binding struct {
	Path       string `json:"path"`
	Method     string `json:"method"`
	Downstream string `json:"downstream_path"`
}

func (s *server) proxyHandler(b binding) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(ctxRoute, b.Downstream)
		outcome := s.serveProxy(c, b)
		c.Set(ctxOutcome, outcome)
		s.metrics.ObserveRequest(b.Downstream, b.Method, c.Writer.Status(), outcome, time.Since(start))
	}
}

// serveProxy forwards one request and writes the (possibly decorated)
// response. It returns the outcome label used in logs and metrics.
func (s *server) serveProxy(c *gin.Context, b binding) string {
	engine := s.st.Engine()

	// Resolve the schema before calling downstream so a route the document
	// does not describe never reaches the upstream.
	schema, err := engine.Routes().SchemaForRoute(b.Downstream, c.Request.Method)
	if err != nil {
		return s.fail(c, err)
	}

	resp, err := s.proxy.Forward(c, proxy.ExpandPath(b.Downstream, c.Params))
	if err != nil {
		return s.fail(c, err)
	}
	c.Set(ctxUpstreamStatus, resp.StatusCode)

	if !decoratable(resp) {
		writeUpstream(c, resp, resp.Body)
		trafficdump.AppendGatewayResponse(c, resp.StatusCode, b.Downstream, nil, resp.Body)
		return outcomePassthrough
	}

	transformStart := time.Now()
	out, stats, err := engine.DecorateBody(c.Request.Context(), resp.Body, schema)
	if err != nil {
		return s.fail(c, err)
	}
	s.metrics.ObserveTransform(stats, time.Since(transformStart))
	c.Set(ctxStats, stats)

	writeUpstream(c, resp, out)
	trafficdump.AppendGatewayResponse(c, resp.StatusCode, b.Downstream, statsSummary(stats), out)
	return outcomeDecorated
}

// decoratable reports whether a downstream response is a 2xx JSON body.
// Anything else is a business error or a payload the gateway does not own.
func decoratable(resp *proxy.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return false
	}
	return resp.IsJSON()
}

func writeUpstream(c *gin.Context, resp *proxy.Response, body []byte) {
	resp.WriteHeaders(c.Writer.Header())
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Data(resp.StatusCode, ct, body)
}

// fail maps an error of the proxy pipeline to a response and returns the
// outcome label.
func (s *server) fail(c *gin.Context, err error) string {
	switch {
	case proxy.IsClientDisconnect(err) || c.Request.Context().Err() != nil:
		c.Status(statusClientClosedRequest)
		c.Abort()
		return outcomeClientGone
	case errors.Is(err, openapi.ErrRouteNotFound):
		writeError(c, http.StatusInternalServerError, "server_error", "route_not_found", err.Error())
		return "route_not_found"
	case errors.Is(err, openapi.ErrUnsupportedMethod):
		writeError(c, http.StatusInternalServerError, "server_error", "unsupported_method", err.Error())
		return "unsupported_method"
	case errors.Is(err, jsonvalue.ErrMalformed):
		writeError(c, http.StatusBadGateway, "upstream_error", "malformed_upstream_body", err.Error())
		return "malformed_upstream_body"
	case errors.Is(err, hateoas.ErrUnsupportedRoot):
		writeError(c, http.StatusInternalServerError, "server_error", "unsupported_root", err.Error())
		return "unsupported_root"
	case errors.Is(err, proxy.ErrRequestTooLarge):
		writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", "request_too_large", err.Error())
		return "request_too_large"
	case errors.Is(err, proxy.ErrBodyTooLarge):
		writeError(c, http.StatusBadGateway, "upstream_error", "body_too_large", err.Error())
		return "body_too_large"
	case errors.Is(err, proxy.ErrUpstreamUnavailable):
		writeError(c, http.StatusBadGateway, "upstream_error", "upstream_unavailable", err.Error())
		return "upstream_unavailable"
	default:
		writeError(c, http.StatusInternalServerError, "server_error", "internal_error", err.Error())
		return "internal_error"
	}
}

func statsSummary(s hateoas.Stats) map[string]int {
	return map[string]int{
		"objects":    s.ObjectsVisited,
		"decorated":  s.ObjectsDecorated,
		"links":      s.LinksEmitted,
		"suppressed": s.LinksSuppressed,
		"unconfig":   s.Unconfigured,
	}
}

func writeError(c *gin.Context, status int, typ, code, msg string) {
	if c != nil {
		if rid := strings.TrimSpace(c.GetString(requestid.HeaderKey)); rid != "" {
			msg = msg + " (request id: " + rid + ")"
		}
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"message": msg,
			"type":    typ,
			"code":    code,
		},
	})
}
