// Package solve is the HTTP client for the remote solver endpoint.
package solve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/geosolve/internal/logging"
	"github.com/aretw0/geosolve/pkg/domain"
)

// DefaultPath is the path of the solve endpoint relative to the base URL.
const DefaultPath = "/solve"

const maxDetail = 512

// Client posts requests to a solver. It performs exactly one exchange per call
// and never retries.
type Client struct {
	baseURL    string
	path       string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithPath overrides the endpoint path.
func WithPath(path string) Option {
	return func(c *Client) {
		c.path = path
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a solver client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    DefaultPath,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the full endpoint URL.
func (c *Client) URL() string {
	return c.baseURL + c.path
}

// Solve posts req as JSON and decodes the response.
// Transport, status and response decoding failures are a
// *domain.RemoteComputationError; a request that cannot be built is not.
func (c *Client) Solve(ctx context.Context, req *domain.Request) (*domain.SolveResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Solve request", "url", c.URL(), "definition", req.Definition, "size", len(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.RemoteComputationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetail))
		return nil, &domain.RemoteComputationError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Detail:     strings.TrimSpace(string(detail)),
		}
	}

	var out domain.SolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &domain.RemoteComputationError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return &out, nil
}

// statusText returns the reason phrase of the response, e.g. "Internal Server Error".
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
