package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantMsg    string
		wantUnwrap error
	}{
		{
			name: "not found",
			err: &APIError{
				Service:    "pypi",
				StatusCode: 404,
				Message:    "Not Found",
				Endpoint:   "/pypi/nope/json",
			},
			wantMsg:    "pypi API error (404) at /pypi/nope/json: Not Found",
			wantUnwrap: ErrNotFound,
		},
		{
			name: "with request ID",
			err: &APIError{
				Service:    "huggingface",
				StatusCode: 500,
				Message:    "Internal error",
				Endpoint:   "/api/repos/create",
				RequestID:  "abc123",
			},
			wantMsg:    "huggingface API error (500) at /api/repos/create [abc123]: Internal error",
			wantUnwrap: ErrServerError,
		},
		{
			name:       "unauthorized",
			err:        &APIError{Service: "huggingface", StatusCode: 401, Message: "Invalid token", Endpoint: "/api/whoami-v2"},
			wantMsg:    "huggingface API error (401) at /api/whoami-v2: Invalid token",
			wantUnwrap: ErrUnauthorized,
		},
		{
			name:       "conflict",
			err:        &APIError{Service: "huggingface", StatusCode: 409, Message: "exists", Endpoint: "/api/repos/create"},
			wantMsg:    "huggingface API error (409) at /api/repos/create: exists",
			wantUnwrap: ErrConflict,
		},
		{
			name:       "rate limited",
			err:        &APIError{Service: "pypi", StatusCode: 429, Message: "slow down", Endpoint: "/x"},
			wantMsg:    "pypi API error (429) at /x: slow down",
			wantUnwrap: ErrRateLimited,
		},
		{
			name:       "unmapped",
			err:        &APIError{Service: "pypi", StatusCode: 418, Message: "teapot", Endpoint: "/x"},
			wantMsg:    "pypi API error (418) at /x: teapot",
			wantUnwrap: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); got != tt.wantUnwrap {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantUnwrap)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("create space: %w", &APIError{StatusCode: 409})
	if !IsConflict(wrapped) {
		t.Error("IsConflict should see through wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("409 is not a not-found")
	}
	if !IsUnauthorized(&APIError{StatusCode: 403}) {
		t.Error("403 should count as unauthorized")
	}
	if !IsRetryable(&APIError{StatusCode: 503}) {
		t.Error("503 should be retryable")
	}
	if IsRetryable(&APIError{StatusCode: 400}) {
		t.Error("400 should not be retryable")
	}
}

func TestClient(t *testing.T) {
	t.Run("successful GET", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
				t.Errorf("User-Agent = %q", ua)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "test"})
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL, ServiceName: "test"})

		var result map[string]string
		if err := client.GetJSON(context.Background(), "/test", &result); err != nil {
			t.Fatalf("GetJSON() error = %v", err)
		}
		if result["name"] != "test" {
			t.Errorf("got name = %q, want %q", result["name"], "test")
		}
	})

	t.Run("absolute URL bypasses base", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: "http://unused.invalid", ServiceName: "test"})

		var result map[string]string
		if err := client.GetJSON(context.Background(), server.URL+"/abs", &result); err != nil {
			t.Fatalf("GetJSON() error = %v", err)
		}
		if result["path"] != "/abs" {
			t.Errorf("path = %q", result["path"])
		}
	})

	t.Run("POST JSON with bearer token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("got method %s, want POST", r.Method)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer hf_secret" {
				t.Errorf("Authorization = %q", got)
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["key"] != "value" {
				t.Errorf("got body key = %q, want %q", body["key"], "value")
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "123"})
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL, ServiceName: "test", Token: "hf_secret"})

		var result map[string]string
		if err := client.PostJSON(context.Background(), "create", map[string]string{"key": "value"}, &result); err != nil {
			t.Fatalf("PostJSON() error = %v", err)
		}
		if result["id"] != "123" {
			t.Errorf("got id = %q, want %q", result["id"], "123")
		}
	})

	t.Run("raw body keeps content type", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/x-ndjson" {
				t.Errorf("Content-Type = %q", ct)
			}
			data, _ := io.ReadAll(r.Body)
			if string(data) != "{}\n{}\n" {
				t.Errorf("body = %q", data)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL, ServiceName: "test"})
		err := client.Send(context.Background(), Request{
			Method:      http.MethodPost,
			Path:        "/commit",
			Body:        []byte("{}\n{}\n"),
			ContentType: "application/x-ndjson",
		}, nil)
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	})

	t.Run("handles 404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Not found"})
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL, ServiceName: "test"})

		err := client.GetJSON(context.Background(), "/missing", nil)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got error %v, want ErrNotFound", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "Not found" {
			t.Errorf("APIError message not parsed: %v", err)
		}
	})

	t.Run("retries on 5xx", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts++
			if attempts < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:     server.URL,
			ServiceName: "test",
			MaxRetries:  3,
			RetryWait:   1 * time.Millisecond,
		})

		var result map[string]string
		if err := client.GetJSON(context.Background(), "/test", &result); err != nil {
			t.Fatalf("GetJSON() error = %v", err)
		}
		if attempts != 3 {
			t.Errorf("got %d attempts, want 3", attempts)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts++
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:    server.URL,
			MaxRetries: 2,
			RetryWait:  1 * time.Millisecond,
		})

		err := client.GetJSON(context.Background(), "/test", nil)
		if !errors.Is(err, ErrServerError) {
			t.Errorf("error = %v, want ErrServerError", err)
		}
		if attempts != 2 {
			t.Errorf("got %d attempts, want 2", attempts)
		}
	})

	t.Run("does not retry 4xx", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts++
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL, RetryWait: time.Millisecond})
		_ = client.GetJSON(context.Background(), "/test", nil)
		if attempts != 1 {
			t.Errorf("got %d attempts, want 1", attempts)
		}
	})
}

func TestPageIterator(t *testing.T) {
	pages := map[int][]int{1: {1, 2}, 2: {3}, 3: {4, 5}}
	fetch := func(_ context.Context, page int) ([]int, int, error) {
		next := page + 1
		if next > 3 {
			next = 0
		}
		return pages[page], next, nil
	}

	t.Run("All", func(t *testing.T) {
		all, err := NewPageIterator(fetch).All(context.Background())
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if len(all) != 5 || all[4] != 5 {
			t.Errorf("All = %v", all)
		}
	})

	t.Run("Find stops early", func(t *testing.T) {
		calls := 0
		counting := func(ctx context.Context, page int) ([]int, int, error) {
			calls++
			return fetch(ctx, page)
		}
		item, ok, err := NewPageIterator(counting).Find(context.Background(), func(n int) bool { return n == 3 })
		if err != nil || !ok || item != 3 {
			t.Fatalf("Find = (%d, %v, %v)", item, ok, err)
		}
		if calls != 2 {
			t.Errorf("fetched %d pages, want 2", calls)
		}
	})

	t.Run("error sticks", func(t *testing.T) {
		boom := errors.New("boom")
		it := NewPageIterator(func(context.Context, int) ([]int, int, error) { return nil, 0, boom })
		if _, _, err := it.Next(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Next error = %v", err)
		}
		if _, err := it.All(context.Background()); !errors.Is(err, boom) {
			t.Errorf("All error = %v", err)
		}
	})
}
