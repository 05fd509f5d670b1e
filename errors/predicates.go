package errors

import (
	"errors"
	"strings"

	prhttp "github.com/randalmurphal/prdeploy/http"
)

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, prhttp.ErrUnauthorized) {
		return true
	}

	return containsAny(strings.ToLower(err.Error()), "unauthenticated", "unauthorized", "401 ")
}

// IsConnectionError checks if an error is connection-related.
// This includes TLS errors, timeouts, and network connectivity issues.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrConnectionFailed) {
		return true
	}

	return containsAny(strings.ToLower(err.Error()),
		"connection refused", "no such host", "network is unreachable", "dial tcp",
		"certificate", "tls", "x509",
		"timeout", "deadline exceeded",
	)
}

// IsPermissionError checks if an error is permission-related.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, prhttp.ErrForbidden) {
		return true
	}

	return containsAny(strings.ToLower(err.Error()), "permission denied", "forbidden", "403 ")
}
