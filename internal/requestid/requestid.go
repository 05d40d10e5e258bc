// Package requestid issues and sanitizes the X-Request-Id carried through
// the gateway, its logs and the downstream call.
package requestid

import (
	"strings"

	"github.com/google/uuid"
)

const HeaderKey = "X-Request-Id"

// maxLen bounds client supplied ids so they stay usable as log fields.
const maxLen = 128

// Gen returns a new time-ordered id.
func Gen() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// FromHeader keeps a client supplied id when it is short printable ASCII
// without spaces, and generates a fresh one otherwise.
func FromHeader(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxLen {
		return Gen()
	}
	for i := 0; i < len(v); i++ {
		if v[i] <= ' ' || v[i] > '~' {
			return Gen()
		}
	}
	return v
}
