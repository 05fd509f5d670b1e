package errors

import "errors"

// Common CLI errors with actionable guidance.
var (
	// ErrNotAuthenticated indicates a missing or rejected credential.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotInGitRepo indicates the command requires a git repository.
	ErrNotInGitRepo = errors.New("not in a git repository")

	// ErrMissingSecret indicates a required secret env var is unset.
	ErrMissingSecret = errors.New("missing secret")

	// ErrConnectionFailed indicates the remote service is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrPermissionDenied indicates insufficient permissions.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrSessionExpired indicates the credential has expired.
	ErrSessionExpired = errors.New("session expired")
)
