package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/requestid"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/version"
)

func newGinContext(t *testing.T, method, target string, body io.Reader) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gc, _ := gin.CreateTestContext(httptest.NewRecorder())
	gc.Request = httptest.NewRequest(method, target, body)
	return gc
}

func TestForward_RequestShape(t *testing.T) {
	var got *http.Request
	var gotBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Upstream", "1")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer upstream.Close()

	gc := newGinContext(t, http.MethodPost, "/api/thoughts?verbose=1", strings.NewReader(`{"description":"x"}`))
	gc.Request.Header.Set("Content-Type", "application/json")
	gc.Request.Header.Set("Accept-Encoding", "gzip")
	gc.Request.Header.Set("Connection", "keep-alive, X-Hop")
	gc.Request.Header.Set("X-Hop", "drop-me")
	gc.Request.Header.Set("Authorization", "Bearer downstream-token")
	gc.Set(requestid.HeaderKey, "rid-1")

	c := &Client{HTTP: upstream.Client(), BaseURL: upstream.URL + "/", MaxBodyBytes: 1 << 20}
	resp, err := c.Forward(gc, "/thoughts")
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, resp.IsJSON())
	require.Equal(t, `{"id":"abc"}`, string(resp.Body))
	require.Equal(t, "1", resp.Header.Get("X-Upstream"))

	require.NotNil(t, got)
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/thoughts", got.URL.Path)
	require.Equal(t, "verbose=1", got.URL.RawQuery)
	require.Equal(t, `{"description":"x"}`, string(gotBody))
	require.Equal(t, "rid-1", got.Header.Get(requestid.HeaderKey))
	require.Equal(t, "Bearer downstream-token", got.Header.Get("Authorization"))
	require.Empty(t, got.Header.Get("X-Hop"))
	require.Equal(t, version.Via(), got.Header.Get("Via"))
}

func TestForward_UpstreamUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	gc := newGinContext(t, http.MethodGet, "/thoughts", nil)
	c := &Client{HTTP: &http.Client{Timeout: 2 * time.Second}, BaseURL: "http://" + addr}
	_, err = c.Forward(gc, "/thoughts")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUpstreamUnavailable), "err=%v", err)
	require.False(t, IsClientDisconnect(err))
}

func TestForward_ClientCancelled(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gc := newGinContext(t, http.MethodGet, "/thoughts", nil)
	gc.Request = gc.Request.WithContext(ctx)

	c := &Client{HTTP: upstream.Client(), BaseURL: upstream.URL}
	_, err := c.Forward(gc, "/thoughts")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrClientGone), "err=%v", err)
	require.True(t, IsClientDisconnect(err))
}

func TestForward_ResponseTooLarge(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer upstream.Close()

	gc := newGinContext(t, http.MethodGet, "/thoughts", nil)
	c := &Client{HTTP: upstream.Client(), BaseURL: upstream.URL, MaxBodyBytes: 16}
	_, err := c.Forward(gc, "/thoughts")
	require.True(t, errors.Is(err, ErrBodyTooLarge), "err=%v", err)
}

func TestForward_RequestTooLarge(t *testing.T) {
	var calls int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer upstream.Close()

	gc := newGinContext(t, http.MethodPost, "/thoughts", strings.NewReader(strings.Repeat("a", 100)))
	c := &Client{HTTP: upstream.Client(), BaseURL: upstream.URL, MaxBodyBytes: 16}
	_, err := c.Forward(gc, "/thoughts")
	require.ErrorIs(t, err, ErrRequestTooLarge)
	require.NotErrorIs(t, err, ErrBodyTooLarge)
	require.Zero(t, calls)
}

func TestForward_NotConfigured(t *testing.T) {
	gc := newGinContext(t, http.MethodGet, "/", nil)
	var c *Client
	_, err := c.Forward(gc, "/")
	require.Error(t, err)

	_, err = (&Client{HTTP: http.DefaultClient}).Forward(gc, "/")
	require.Error(t, err)
}

func TestWriteHeaders(t *testing.T) {
	r := &Response{Header: http.Header{
		"Content-Type":     {"application/json"},
		"Content-Length":   {"12"},
		"Content-Encoding": {"gzip"},
		"Location":         {"/thoughts/1"},
	}}
	w := http.Header{}
	r.WriteHeaders(w)
	require.Equal(t, "application/json", w.Get("Content-Type"))
	require.Equal(t, "/thoughts/1", w.Get("Location"))
	require.Empty(t, w.Get("Content-Length"))
	require.Empty(t, w.Get("Content-Encoding"))
}

func TestIsJSON(t *testing.T) {
	cases := map[string]bool{
		"application/json":                true,
		"application/json; charset=utf-8": true,
		"application/hal+json":            true,
		"APPLICATION/PROBLEM+JSON":        true,
		"text/plain":                      false,
		"":                                false,
	}
	for ct, want := range cases {
		r := &Response{Header: http.Header{}}
		if ct != "" {
			r.Header.Set("Content-Type", ct)
		}
		require.Equal(t, want, r.IsJSON(), ct)
	}
	var nilResp *Response
	require.False(t, nilResp.IsJSON())
}

func TestExpandPath(t *testing.T) {
	params := gin.Params{{Key: "thoughtId", Value: "a b/c"}, {Key: "title", Value: "Misc"}}
	require.Equal(t, "/thoughts/a%20b%2Fc", ExpandPath("/thoughts/{thoughtId}", params))
	require.Equal(t, "/topics/Misc", ExpandPath("/topics/{title}", params))
	require.Equal(t, "/x/{missing}/y", ExpandPath("/x/{missing}/y", params))
	require.Equal(t, "/x/{open", ExpandPath("/x/{open", params))
	require.Equal(t, "/plain", ExpandPath("/plain", params))
}

func TestGinPath(t *testing.T) {
	require.Equal(t, "/thoughts/:thoughtId", GinPath("/thoughts/{thoughtId}"))
	require.Equal(t, "/a/:b/c/:d", GinPath("/a/{b}/c/{d}"))
	require.Equal(t, "/a/:b", GinPath("/a/:b"))
	require.Equal(t, "/a/{}", GinPath("/a/{}"))
}

func TestIsClientDisconnectErr(t *testing.T) {
	require.False(t, isClientDisconnectErr(nil))
	require.True(t, isClientDisconnectErr(context.Canceled))
	require.True(t, isClientDisconnectErr(syscall.EPIPE))
	require.True(t, isClientDisconnectErr(&net.OpError{Op: "write", Err: syscall.ECONNRESET}))
	require.True(t, isClientDisconnectErr(errors.New("write: broken pipe")))
	require.False(t, isClientDisconnectErr(errors.New("dial tcp: connection refused")))
}

func TestReadAllLimit(t *testing.T) {
	b, err := readAllLimit(strings.NewReader("abc"), 3)
	require.NoError(t, err)
	require.Equal(t, "abc", string(b))

	_, err = readAllLimit(strings.NewReader("abcd"), 3)
	require.ErrorIs(t, err, ErrBodyTooLarge)

	b, err = readAllLimit(strings.NewReader("abcd"), 0)
	require.NoError(t, err)
	require.Equal(t, "abcd", string(b))
}
