// Package auth guards the gateway's admin surface (route listing, reload)
// with the static key configured as auth.api_key.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/requestid"
)

const HeaderAPIKey = "x-api-key"

const challenge = `Bearer realm="hateoas-gateway admin"`

// KeyFromRequest returns the admin key presented as a bearer token, or in
// x-api-key when there is no bearer token.
func KeyFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if v := strings.TrimSpace(r.Header.Get("Authorization")); len(v) > 7 && strings.EqualFold(v[:7], "Bearer ") {
		if key := strings.TrimSpace(v[7:]); key != "" {
			return key
		}
	}
	return strings.TrimSpace(r.Header.Get(HeaderAPIKey))
}

// Middleware admits requests carrying adminKey. An empty adminKey rejects
// everything with a server error, since the admin group should not have
// been mounted.
func Middleware(adminKey string) gin.HandlerFunc {
	expected := strings.TrimSpace(adminKey)
	return func(c *gin.Context) {
		if expected == "" {
			deny(c, http.StatusInternalServerError, "server_error", "admin_key_unset",
				"admin endpoints are mounted but auth.api_key is empty")
			return
		}
		got := KeyFromRequest(c.Request)
		if got == "" {
			c.Header("WWW-Authenticate", challenge)
			deny(c, http.StatusUnauthorized, "invalid_request_error", "admin_key_required",
				"admin endpoints need the key from auth.api_key as a bearer token or x-api-key header")
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			c.Header("WWW-Authenticate", challenge)
			deny(c, http.StatusUnauthorized, "invalid_request_error", "invalid_admin_key", "admin key rejected")
			return
		}
		c.Next()
	}
}

func deny(c *gin.Context, status int, typ, code, msg string) {
	if rid := strings.TrimSpace(c.GetString(requestid.HeaderKey)); rid != "" {
		msg += " (request id: " + rid + ")"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"message": msg,
			"type":    typ,
			"code":    code,
		},
	})
}
