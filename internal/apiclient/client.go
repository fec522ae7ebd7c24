package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
)

// deviceTokenHeader carries the device credential on every
// authenticated request.
const deviceTokenHeader = "X-Device-Token"

// defaultTimeout bounds each request when the config doesn't override it.
const defaultTimeout = 15 * time.Second

// Client talks to the point-of-sale backend's device API.
//
// The device token is mutable at runtime: it is empty before
// registration, set after a successful register or rehydrate, and
// cleared when the backend revokes the device. All methods are safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger

	mu    sync.RWMutex
	token string
}

// Config contains the options for constructing a Client.
type Config struct {
	// BaseURL is the backend API root, e.g. "https://api.example.com/api".
	BaseURL string

	// Timeout is the per-request timeout. Zero means the default.
	Timeout time.Duration
}

// New creates a Client for the given backend.
func New(cfg Config, logger *logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetToken installs the device token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the device token. Subsequent requests go out
// unauthenticated.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current device token, or "" if none is set.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// listEnvelope is the wrapper the backend puts around collection
// responses: {"data": [...]}.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// do executes a request and decodes the response into out (if non-nil).
//
// Error classification:
//   - request construction fails: Code REQUEST_ERROR, status 0
//   - transport fails: Code NETWORK_ERROR, status 0
//   - non-2xx: Code from the response body, UNKNOWN_ERROR if absent
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) *APIError {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return requestError(fmt.Errorf("encoding request body: %w", err))
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return requestError(err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set(deviceTokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close() //nolint:errcheck // Response body cleanup

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			Message:    fmt.Sprintf("decoding response: %v", err),
			Code:       CodeUnknown,
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}

// decodeError builds an APIError from a non-2xx response. The backend
// reports failures as {"message": ..., "code": ...}; anything else
// falls back to the status text.
func (c *Client) decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Message:    resp.Status,
		Code:       CodeUnknown,
		StatusCode: resp.StatusCode,
	}

	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			apiErr.Message = body.Message
		}
		if body.Code != "" {
			apiErr.Code = body.Code
		}
	}

	c.logger.Debug("api request failed",
		"status", resp.StatusCode,
		"code", apiErr.Code,
	)
	return apiErr
}

// getList fetches a collection endpoint and unwraps the {data: []}
// envelope.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, *APIError) {
	var envelope listEnvelope[T]
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
