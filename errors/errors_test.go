package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	prhttp "github.com/randalmurphal/prdeploy/http"
)

func TestCLIError(t *testing.T) {
	err := &CLIError{
		Err:        ErrNotAuthenticated,
		Message:    "Test message",
		Suggestion: "Test suggestion",
		Details:    "Test details",
	}

	errStr := err.Error()
	for _, want := range []string{"Test message", "Test details", "Test suggestion"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("expected error to contain %q, got %q", want, errStr)
		}
	}
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Error("expected error to unwrap to ErrNotAuthenticated")
	}
}

func TestCLIError_MinimalFields(t *testing.T) {
	err := &CLIError{
		Err:     ErrConnectionFailed,
		Message: "Connection failed",
	}
	if got := err.Error(); got != "Connection failed" {
		t.Errorf("expected 'Connection failed', got %q", got)
	}
}

func TestWrapAuthError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   error
		wantSubstr string
	}{
		{
			name:       "token expired",
			err:        fmt.Errorf("validate app jwt: token expired"),
			wantType:   ErrSessionExpired,
			wantSubstr: "Hub token has expired",
		},
		{
			name:       "api 401",
			err:        &prhttp.APIError{Service: "huggingface", StatusCode: 401, Endpoint: "/api/repos/create"},
			wantType:   ErrNotAuthenticated,
			wantSubstr: "rejected the credentials",
		},
		{
			name:       "go-github 401 text",
			err:        fmt.Errorf("POST https://api.github.com/repos/o/r/issues/1/comments: 401 Bad credentials []"),
			wantType:   ErrNotAuthenticated,
			wantSubstr: "rejected the credentials",
		},
		{
			name:       "api 403",
			err:        &prhttp.APIError{Service: "huggingface", StatusCode: 403, Endpoint: "/api/repos/create"},
			wantType:   ErrPermissionDenied,
			wantSubstr: "lacks permission",
		},
		{
			name:     "unrelated",
			err:      fmt.Errorf("wheel not found"),
			wantType: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapAuthError(tt.err, "Hub")
			if tt.wantType == nil {
				if result != tt.err {
					t.Errorf("expected error unchanged, got %v", result)
				}
				return
			}
			if !errors.Is(result, tt.wantType) {
				t.Errorf("expected %v, got %v", tt.wantType, result)
			}
			if !errors.Is(result, tt.err) {
				t.Error("wrapped error should keep the original in its chain")
			}
			if !strings.Contains(result.Error(), tt.wantSubstr) {
				t.Errorf("expected %q in %q", tt.wantSubstr, result.Error())
			}
		})
	}

	if WrapAuthError(nil, "Hub") != nil {
		t.Error("nil error should stay nil")
	}
}

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantWrap   bool
		wantSubstr string
	}{
		{"refused", fmt.Errorf("dial tcp 127.0.0.1:443: connect: connection refused"), true, "Cannot connect to https://huggingface.co"},
		{"dns", fmt.Errorf("lookup pypi.invalid: no such host"), true, "Cannot connect"},
		{"tls", fmt.Errorf("x509: certificate signed by unknown authority"), true, "TLS/certificate error"},
		{"timeout", fmt.Errorf("context deadline exceeded"), true, "timed out"},
		{"api error", &prhttp.APIError{Service: "pypi", StatusCode: 504, Message: "gateway timeout"}, false, ""},
		{"other", fmt.Errorf("boom"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapConnectionError(tt.err, "https://huggingface.co")
			if !tt.wantWrap {
				if result != tt.err {
					t.Errorf("expected unchanged error, got %v", result)
				}
				return
			}
			if !errors.Is(result, ErrConnectionFailed) {
				t.Errorf("expected ErrConnectionFailed, got %v", result)
			}
			if !strings.Contains(result.Error(), tt.wantSubstr) {
				t.Errorf("expected %q in %q", tt.wantSubstr, result.Error())
			}
		})
	}
}

func TestExplain(t *testing.T) {
	auth := Explain(&prhttp.APIError{StatusCode: 401}, "GitHub", "https://api.github.com")
	if !errors.Is(auth, ErrNotAuthenticated) {
		t.Errorf("Explain(401) = %v", auth)
	}

	conn := Explain(fmt.Errorf("dial tcp: connection refused"), "GitHub", "https://api.github.com")
	if !errors.Is(conn, ErrConnectionFailed) {
		t.Errorf("Explain(refused) = %v", conn)
	}

	already := NewMissingSecretError("HF_TOKEN")
	if Explain(already, "Hub", "") != already {
		t.Error("Explain should leave CLIError untouched")
	}

	if Explain(nil, "Hub", "") != nil {
		t.Error("Explain(nil) should be nil")
	}
}

func TestNewErrors(t *testing.T) {
	secret := NewMissingSecretError("HF_TOKEN")
	if !errors.Is(secret, ErrMissingSecret) {
		t.Error("expected ErrMissingSecret")
	}
	if !strings.Contains(secret.Error(), "HF_TOKEN is not set") {
		t.Errorf("message = %q", secret.Error())
	}

	repo := NewNotInGitRepoError()
	if !errors.Is(repo, ErrNotInGitRepo) {
		t.Error("expected ErrNotInGitRepo")
	}
}

func TestCustomMessenger(t *testing.T) {
	err := NewMissingSecretError("AWS_ACCESS_KEY_ID", WithMessenger(&testMessenger{}))
	if !strings.Contains(err.Error(), "custom secret AWS_ACCESS_KEY_ID") {
		t.Errorf("message = %q", err.Error())
	}

	wrapped := WrapAuthError(&prhttp.APIError{StatusCode: 401}, "S3", WithMessenger(&testMessenger{}))
	if !strings.Contains(wrapped.Error(), "custom auth S3") {
		t.Errorf("message = %q", wrapped.Error())
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		auth       bool
		connection bool
		permission bool
	}{
		{"nil", nil, false, false, false},
		{"sentinel auth", ErrNotAuthenticated, true, false, false},
		{"expired", ErrSessionExpired, true, false, false},
		{"http 401", &prhttp.APIError{StatusCode: 401}, true, false, false},
		{"http 403", &prhttp.APIError{StatusCode: 403}, false, false, true},
		{"sentinel permission", ErrPermissionDenied, false, false, true},
		{"refused", fmt.Errorf("connection refused"), false, true, false},
		{"tls", fmt.Errorf("tls: handshake failure"), false, true, false},
		{"wrapped connection", fmt.Errorf("upload: %w", ErrConnectionFailed), false, true, false},
		{"plain", fmt.Errorf("no demos found"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.auth {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.auth)
			}
			if got := IsConnectionError(tt.err); got != tt.connection {
				t.Errorf("IsConnectionError() = %v, want %v", got, tt.connection)
			}
			if got := IsPermissionError(tt.err); got != tt.permission {
				t.Errorf("IsPermissionError() = %v, want %v", got, tt.permission)
			}
		})
	}
}

type testMessenger struct{ DefaultMessenger }

func (m *testMessenger) AuthErrorMessage(service string) (string, string) {
	return "custom auth " + service, "custom suggestion"
}

func (m *testMessenger) MissingSecretMessage(name string) (string, string) {
	return "custom secret " + name, "custom suggestion"
}
