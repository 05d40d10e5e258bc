package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveRequest("/thoughts", "GET", 200, "decorated", 5*time.Millisecond)
	m.ObserveRequest("/thoughts", "GET", 200, "decorated", 7*time.Millisecond)
	m.ObserveRequest("/thoughts", "GET", 502, "malformed_upstream_body", time.Millisecond)
	m.ObserveTransform(hateoas.Stats{ObjectsVisited: 3, ObjectsDecorated: 2, LinksEmitted: 4, LinksSuppressed: 1, Unconfigured: 1}, time.Millisecond)
	m.ObserveReload("signal", nil)
	m.ObserveReload("watch", errors.New("boom"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/thoughts", "GET", "200", "decorated")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/thoughts", "GET", "502", "malformed_upstream_body")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.links.WithLabelValues("emitted")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.links.WithLabelValues("suppressed")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.objects.WithLabelValues("plain")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.objects.WithLabelValues("unconfigured")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("watch", "error")))
	require.Equal(t, 1, testutil.CollectAndCount(m.transformLatency))
}

func TestObserveTransform_ObjectResultsSumToVisited(t *testing.T) {
	m := New()
	m.ObserveTransform(hateoas.Stats{ObjectsVisited: 10, ObjectsDecorated: 4, Unconfigured: 3}, time.Millisecond)
	m.ObserveTransform(hateoas.Stats{ObjectsVisited: 5, ObjectsDecorated: 1}, time.Millisecond)

	decorated := testutil.ToFloat64(m.objects.WithLabelValues("decorated"))
	plain := testutil.ToFloat64(m.objects.WithLabelValues("plain"))
	unconfigured := testutil.ToFloat64(m.objects.WithLabelValues("unconfigured"))
	require.Equal(t, 5.0, decorated)
	require.Equal(t, 7.0, plain)
	require.Equal(t, 3.0, unconfigured)
	require.Equal(t, 15.0, decorated+plain+unconfigured)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveReload("admin", nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(b), `hateoas_gateway_reloads_total{result="ok",trigger="admin"} 1`), "body=%s", b)
	require.True(t, strings.Contains(string(b), "go_goroutines"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/x", "GET", 200, "passthrough", time.Millisecond)
	m.ObserveTransform(hateoas.Stats{}, 0)
	m.ObserveReload("signal", nil)
	require.Nil(t, m.Registry())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
