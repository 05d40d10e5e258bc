package proxy

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

var (
	// ErrUpstreamUnavailable wraps transport failures talking to the downstream API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrClientGone is returned when the calling client cancelled the request.
	ErrClientGone = errors.New("client closed request")
	// ErrBodyTooLarge is returned when the downstream response exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("body too large")
	// ErrRequestTooLarge is returned when the client request body exceeds MaxBodyBytes.
	ErrRequestTooLarge = errors.New("request body too large")
)

func isClientDisconnectErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	// Common write-side errors when the client closes the connection mid-response.
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var op *net.OpError
	if errors.As(err, &op) {
		if errors.Is(op.Err, syscall.EPIPE) || errors.Is(op.Err, syscall.ECONNRESET) {
			return true
		}
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "broken pipe") || strings.Contains(s, "connection reset by peer")
}

// IsClientDisconnect reports whether err means the client went away.
func IsClientDisconnect(err error) bool {
	return errors.Is(err, ErrClientGone) || isClientDisconnectErr(err)
}
