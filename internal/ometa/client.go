package ometa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
)

// APIError is returned for any non-2xx response from the metadata server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("metadata server returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to the metadata server REST API at api_endpoint.
type Client struct {
	endpoint string
	auth     Provider
	http     *http.Client
	logger   *zap.Logger
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithAuthProvider(p Provider) Option {
	return func(c *Client) {
		c.auth = p
	}
}

func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("api_endpoint is required")
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		auth:     NoAuth{},
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("auth provider: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("metadata server request",
		zap.String("method", method),
		zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bs, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(bs)),
		}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// HealthCheck probes the server health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/health-check", nil, nil)
}

// CreateOrUpdateDatabase upserts a database entity.
func (c *Client) CreateOrUpdateDatabase(ctx context.Context, db *entity.Database) (*entity.Database, error) {
	var created entity.Database
	if err := c.do(ctx, http.MethodPut, "/v1/databases", db, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateOrUpdateTable upserts a table entity.
func (c *Client) CreateOrUpdateTable(ctx context.Context, t *entity.Table) (*entity.Table, error) {
	var created entity.Table
	if err := c.do(ctx, http.MethodPut, "/v1/tables", t, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AddLineage records an edge between two entities.
func (c *Client) AddLineage(ctx context.Context, edge *entity.LineageEdge) error {
	body := map[string]any{
		"edge": map[string]any{
			"fromEntity": map[string]string{"type": "table", "name": edge.From},
			"toEntity":   map[string]string{"type": "table", "name": edge.To},
		},
	}
	return c.do(ctx, http.MethodPut, "/v1/lineage", body, nil)
}

// AddTestResult publishes a quality test outcome.
func (c *Client) AddTestResult(ctx context.Context, tr *entity.TestResult) error {
	return c.do(ctx, http.MethodPut, "/v1/testResults", tr, nil)
}
