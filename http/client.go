// Package http provides the shared HTTP client used for package registry
// lookups and the hosting-platform API.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultMaxRetries is the default number of attempts for transient failures.
const DefaultMaxRetries = 3

// DefaultRetryWait is the default initial wait between retries.
const DefaultRetryWait = 1 * time.Second

// DefaultUserAgent identifies prdeploy to remote services.
const DefaultUserAgent = "prdeploy"

// Client wraps net/http with base URLs, bearer auth, retries and typed errors.
type Client struct {
	client      *http.Client
	baseURL     string
	serviceName string
	userAgent   string
	token       string
	maxRetries  int
	retryWait   time.Duration
	logger      *slog.Logger
}

// ClientConfig holds configuration for Client.
type ClientConfig struct {
	Client      *http.Client
	BaseURL     string
	ServiceName string // Used in errors and logs (e.g., "pypi", "huggingface")
	UserAgent   string
	Token       string // Sent as "Authorization: Bearer <token>" when set
	MaxRetries  int
	RetryWait   time.Duration
	Logger      *slog.Logger
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		client:      cfg.Client,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName: cfg.ServiceName,
		userAgent:   cfg.UserAgent,
		token:       cfg.Token,
		maxRetries:  cfg.MaxRetries,
		retryWait:   cfg.RetryWait,
		logger:      cfg.Logger,
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.retryWait <= 0 {
		c.retryWait = DefaultRetryWait
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.serviceName == "" {
		c.serviceName = "http"
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// ServiceName returns the configured service name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Request describes a single API call.
type Request struct {
	Method      string
	Path        string // Joined to BaseURL unless it is an absolute URL
	Body        []byte
	ContentType string // Defaults to application/json when Body is set
	Headers     map[string]string
}

// Do executes the request, retrying network errors, 429 and 5xx responses
// with exponential backoff. The caller owns the response body.
func (c *Client) Do(ctx context.Context, r Request) (*http.Response, error) {
	url := c.url(r.Path)

	var lastErr error
	for attempt := range c.maxRetries {
		var body io.Reader
		if r.Body != nil {
			body = bytes.NewReader(r.Body)
		}

		req, err := http.NewRequestWithContext(ctx, r.Method, url, body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		c.applyHeaders(req, r)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s request failed: %w", c.serviceName, err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.maxRetries-1 {
				if err := c.sleep(ctx, c.retryWait*time.Duration(1<<attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if shouldRetry(resp) && attempt < c.maxRetries-1 {
			wait := c.getRetryWait(resp, attempt)
			c.logger.Debug("retrying request",
				"service", c.serviceName,
				"status", resp.StatusCode,
				"attempt", attempt+1,
				"wait", wait,
			)
			resp.Body.Close()
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// Send executes the request and decodes a JSON response into result.
// A nil result discards the body.
func (c *Client) Send(ctx context.Context, r Request, result any) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, r.Path, result)
}

// GetJSON performs a GET request and decodes the response into result.
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.Send(ctx, Request{Method: http.MethodGet, Path: path}, result)
}

// PostJSON marshals body, performs a POST and decodes the response into result.
func (c *Client) PostJSON(ctx context.Context, path string, body, result any) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, result)
}

// DeleteJSON performs a DELETE with a JSON body.
func (c *Client) DeleteJSON(ctx context.Context, path string, body any) error {
	return c.sendJSON(ctx, http.MethodDelete, path, body, nil)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, result any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}
	return c.Send(ctx, Request{Method: method, Path: path, Body: data}, result)
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func (c *Client) applyHeaders(req *http.Request, r Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.Body != nil {
		contentType := r.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
}

// handleResponse checks status and decodes the response body.
func (c *Client) handleResponse(resp *http.Response, path string, result any) error {
	if resp.StatusCode >= 400 {
		return c.parseError(resp, path)
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", c.serviceName, err)
	}

	return nil
}

// parseError parses an error response into an APIError.
func (c *Client) parseError(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{
		Service:    c.serviceName,
		StatusCode: resp.StatusCode,
		Endpoint:   path,
		RequestID:  resp.Header.Get("X-Request-Id"),
	}

	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Message != "" {
			apiErr.Message = errResp.Message
		} else if errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// getRetryWait honors Retry-After seconds, else backs off exponentially.
func (c *Client) getRetryWait(resp *http.Response, attempt int) time.Duration {
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return c.retryWait * time.Duration(1<<attempt)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// shouldRetry reports whether a response status is transient.
func shouldRetry(resp *http.Response) bool {
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}
