package errors

import (
	"errors"
	"fmt"
	"strings"

	prhttp "github.com/randalmurphal/prdeploy/http"
)

// CLIError wraps an error with user-friendly context and suggestions.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ErrorMessenger provides customizable error messages.
type ErrorMessenger interface {
	// AuthErrorMessage returns the message and suggestion when a service rejects a token.
	AuthErrorMessage(service string) (message, suggestion string)

	// SessionExpiredMessage returns the message and suggestion for expired tokens.
	SessionExpiredMessage(service string) (message, suggestion string)

	// PermissionDeniedMessage returns the message and suggestion for permission errors.
	PermissionDeniedMessage(service string) (message, suggestion string)

	// ConnectionErrorMessage returns the message and suggestion for connection errors.
	ConnectionErrorMessage(serverURL string) (message, suggestion string)

	// TLSErrorMessage returns the message and suggestion for TLS/certificate errors.
	TLSErrorMessage(serverURL string) (message, suggestion string)

	// TimeoutErrorMessage returns the message and suggestion for timeout errors.
	TimeoutErrorMessage(serverURL string) (message, suggestion string)

	// NotInGitRepoMessage returns the message and suggestion for git repo errors.
	NotInGitRepoMessage() (message, suggestion string)

	// MissingSecretMessage returns the message and suggestion for an unset secret.
	MissingSecretMessage(name string) (message, suggestion string)
}

// DefaultMessenger provides default error messages.
type DefaultMessenger struct{}

func (m DefaultMessenger) AuthErrorMessage(service string) (string, string) {
	return fmt.Sprintf("%s rejected the credentials.", service),
		"Check that the token secret is set and has not been revoked."
}

func (m DefaultMessenger) SessionExpiredMessage(service string) (string, string) {
	return fmt.Sprintf("The %s token has expired.", service),
		"Rotate the token and update the repository secret."
}

func (m DefaultMessenger) PermissionDeniedMessage(service string) (string, string) {
	return fmt.Sprintf("The %s token lacks permission for this action.", service),
		"Grant write scope to the token (pull-requests: write for comments, write role for Spaces)."
}

func (m DefaultMessenger) ConnectionErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("Cannot connect to %s", serverURL),
		"Check that:\n  - The URL is correct\n  - The runner has network access"
}

func (m DefaultMessenger) TLSErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("TLS/certificate error connecting to %s", serverURL),
		"Check that the server certificate is valid."
}

func (m DefaultMessenger) TimeoutErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("Connection to %s timed out", serverURL),
		"The service may be overloaded or unreachable.\nRe-run the workflow in a moment."
}

func (m DefaultMessenger) NotInGitRepoMessage() (string, string) {
	return "This command must be run from within a git repository.",
		"Run it from the repository checkout or set GITHUB_SHA and GITHUB_REPOSITORY."
}

func (m DefaultMessenger) MissingSecretMessage(name string) (string, string) {
	return fmt.Sprintf("%s is not set.", name),
		fmt.Sprintf("Add %s to the repository secrets and map it into the job env.", name)
}

// WrapConfig configures error wrapping behavior.
type WrapConfig struct {
	Messenger ErrorMessenger
}

// Option configures WrapConfig.
type Option func(*WrapConfig)

// WithMessenger sets a custom error messenger.
func WithMessenger(m ErrorMessenger) Option {
	return func(c *WrapConfig) {
		c.Messenger = m
	}
}

func getMessenger(opts []Option) ErrorMessenger {
	cfg := &WrapConfig{
		Messenger: DefaultMessenger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg.Messenger
}

// Explain wraps err with guidance when it is an auth or connection failure
// against service. Other errors are returned unchanged.
func Explain(err error, service, serverURL string, opts ...Option) error {
	if err == nil {
		return nil
	}
	var cli *CLIError
	if errors.As(err, &cli) {
		return err
	}
	if wrapped := WrapAuthError(err, service, opts...); wrapped != err {
		return wrapped
	}
	return WrapConnectionError(err, serverURL, opts...)
}

// WrapAuthError wraps authentication-related errors with helpful guidance.
func WrapAuthError(err error, service string, opts ...Option) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	messenger := getMessenger(opts)

	// Check for token expiration
	if strings.Contains(errStr, "token") && strings.Contains(errStr, "expired") {
		msg, suggestion := messenger.SessionExpiredMessage(service)
		return &CLIError{
			Err:        errors.Join(ErrSessionExpired, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	if IsAuthError(err) {
		msg, suggestion := messenger.AuthErrorMessage(service)
		return &CLIError{
			Err:        errors.Join(ErrNotAuthenticated, err),
			Message:    msg,
			Details:    err.Error(),
			Suggestion: suggestion,
		}
	}

	if IsPermissionError(err) {
		msg, suggestion := messenger.PermissionDeniedMessage(service)
		return &CLIError{
			Err:        errors.Join(ErrPermissionDenied, err),
			Message:    msg,
			Details:    err.Error(),
			Suggestion: suggestion,
		}
	}

	return err
}

// WrapConnectionError wraps connection-related errors with helpful guidance.
func WrapConnectionError(err error, serverURL string, opts ...Option) error {
	if err == nil {
		return nil
	}
	// An HTTP status means the connection worked.
	var apiErr *prhttp.APIError
	if errors.As(err, &apiErr) {
		return err
	}

	errStr := strings.ToLower(err.Error())
	messenger := getMessenger(opts)

	if containsAny(errStr, "connection refused", "no such host", "network is unreachable", "dial tcp") {
		msg, suggestion := messenger.ConnectionErrorMessage(serverURL)
		return &CLIError{
			Err:        errors.Join(ErrConnectionFailed, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	if containsAny(errStr, "certificate", "tls", "x509") {
		msg, suggestion := messenger.TLSErrorMessage(serverURL)
		return &CLIError{
			Err:        errors.Join(ErrConnectionFailed, err),
			Message:    msg,
			Details:    err.Error(),
			Suggestion: suggestion,
		}
	}

	if containsAny(errStr, "timeout", "deadline exceeded") {
		msg, suggestion := messenger.TimeoutErrorMessage(serverURL)
		return &CLIError{
			Err:        errors.Join(ErrConnectionFailed, err),
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	return err
}

// NewNotInGitRepoError creates an error for commands that require a git repository.
func NewNotInGitRepoError(opts ...Option) error {
	msg, suggestion := getMessenger(opts).NotInGitRepoMessage()
	return &CLIError{
		Err:        ErrNotInGitRepo,
		Message:    msg,
		Suggestion: suggestion,
	}
}

// NewMissingSecretError creates an error for an unset secret env var.
func NewMissingSecretError(name string, opts ...Option) error {
	msg, suggestion := getMessenger(opts).MissingSecretMessage(name)
	return &CLIError{
		Err:        ErrMissingSecret,
		Message:    msg,
		Suggestion: suggestion,
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
