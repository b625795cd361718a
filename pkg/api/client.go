// Package api is the REST client for the jam session backend. One Client
// covers every endpoint; mapping of loosely shaped responses lives in
// mapping.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/tidwall/gjson"

	"jamsession/internal/util"
)

const defaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request goes out without an Authorization header.
type TokenSource interface {
	AccessToken() string
}

// FailureKind classifies failures every caller should hear about.
type FailureKind int

const (
	// FailureOffline means the network itself is down.
	FailureOffline FailureKind = iota + 1
	// FailureUnreachable means no HTTP response came back.
	FailureUnreachable
	// FailureServer means the backend answered 500.
	FailureServer
)

// Failure is handed to Config.OnFailure before the error is returned.
type Failure struct {
	Kind   FailureKind
	Method string
	Path   string
	Err    error
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Transport http.RoundTripper
	Tokens    TokenSource
	OnFailure func(Failure)
}

// Client calls the jam session backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	tokens    TokenSource
	onFailure func(Failure)
}

// APIError represents a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// ErrMalformedResponse is returned when a response body has an unexpected shape.
var ErrMalformedResponse = errors.New("malformed response")

// NewClient constructs a backend client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport("jam-api", cfg.Transport),
		},
		tokens:    cfg.Tokens,
		onFailure: cfg.OnFailure,
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetTokenSource replaces the bearer token source.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// SetFailureHandler replaces the global failure handler.
func (c *Client) SetFailureHandler(fn func(Failure)) {
	c.mu.Lock()
	c.onFailure = fn
	c.mu.Unlock()
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	body, err := c.doBytes(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) doBytes(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	contentType := ""
	if payload != nil {
		contentType = "application/json"
	}
	data, _, err := c.send(ctx, method, path, body, contentType)
	return data, err
}

// send performs one request and returns the body with its content type.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, "", err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			kind := FailureUnreachable
			if errors.Is(err, syscall.ENETUNREACH) {
				kind = FailureOffline
			}
			c.fail(Failure{Kind: kind, Method: method, Path: path, Err: err})
		}
		return nil, "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(data, resp.Status),
			Code:    strings.TrimSpace(gjson.GetBytes(data, "code").String()),
		}
		if resp.StatusCode == http.StatusInternalServerError {
			c.fail(Failure{Kind: FailureServer, Method: method, Path: path, Err: apiErr})
		}
		return nil, "", apiErr
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) addAuthHeader(req *http.Request) {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return
	}
	if token := ts.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) fail(f Failure) {
	c.mu.RLock()
	fn := c.onFailure
	c.mu.RUnlock()
	if fn != nil {
		fn(f)
	}
}

// errorMessage picks a message out of an error body: a JSON message or
// error field, a short text body, or the HTTP status line.
func errorMessage(body []byte, status string) string {
	if gjson.ValidBytes(body) {
		for _, key := range []string{"message", "error"} {
			if msg := strings.TrimSpace(gjson.GetBytes(body, key).String()); msg != "" {
				return msg
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= 200 && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		return text
	}
	return status
}
