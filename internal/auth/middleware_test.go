package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/requestid"
)

func adminRouter(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(requestid.HeaderKey, "rid-admin")
		c.Next()
	})
	r.Use(Middleware(key))
	r.POST("/admin/reload", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out["error"].(map[string]any)
}

func TestMiddleware(t *testing.T) {
	r := adminRouter("admin-secret")

	cases := []struct {
		name     string
		header   string
		value    string
		want     int
		wantCode string
	}{
		{name: "bearer", header: "Authorization", value: "Bearer admin-secret", want: http.StatusOK},
		{name: "bearer_lowercase_scheme", header: "Authorization", value: "bearer admin-secret", want: http.StatusOK},
		{name: "x_api_key", header: HeaderAPIKey, value: "admin-secret", want: http.StatusOK},
		{name: "wrong_key", header: "Authorization", value: "Bearer nope", want: http.StatusUnauthorized, wantCode: "invalid_admin_key"},
		{name: "empty_bearer", header: "Authorization", value: "Bearer ", want: http.StatusUnauthorized, wantCode: "admin_key_required"},
		{name: "missing", want: http.StatusUnauthorized, wantCode: "admin_key_required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Code, w.Body.String())
			if tc.wantCode == "" {
				return
			}
			body := errorBody(t, w)
			require.Equal(t, tc.wantCode, body["code"])
			require.Contains(t, body["message"], "(request id: rid-admin)")
			require.Contains(t, w.Header().Get("WWW-Authenticate"), "hateoas-gateway admin")
		})
	}
}

func TestMiddleware_EmptyKeyIsServerError(t *testing.T) {
	r := adminRouter(" ")

	req := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	req.Header.Set(HeaderAPIKey, "anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "admin_key_unset", errorBody(t, w)["code"])
}

func TestKeyFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, "", KeyFromRequest(req))
	require.Equal(t, "", KeyFromRequest(nil))

	req.Header.Set(HeaderAPIKey, " k2 ")
	require.Equal(t, "k2", KeyFromRequest(req))

	req.Header.Set("Authorization", "Bearer k1")
	require.Equal(t, "k1", KeyFromRequest(req))

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	require.Equal(t, "k2", KeyFromRequest(req))
}
