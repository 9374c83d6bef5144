// Package api is the HTTP client for the order/stats backend.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orders-dashboard/internal/domain"
	"orders-dashboard/pkg/logger"
	"orders-dashboard/pkg/utils"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type Options struct {
	Timeout   time.Duration
	RateLimit rate.Limit // requests per second
	Burst     int
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements domain.OrderGateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ domain.OrderGateway = (*Client)(nil)

func NewClient(baseURL string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := opts.RateLimit
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// FetchAll reads the order list and the stats snapshot in parallel.
// Both must succeed.
func (c *Client) FetchAll(ctx context.Context) ([]domain.Order, domain.Stats, error) {
	var (
		orders []domain.Order
		stats  domain.Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.do(gctx, http.MethodGet, "/orders", nil, &orders)
	})
	g.Go(func() error {
		return c.do(gctx, http.MethodGet, "/stats", nil, &stats)
	})
	if err := g.Wait(); err != nil {
		return nil, domain.Stats{}, fmt.Errorf("failed to fetch initial data: %w", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, stats, nil
}

// CommitField sends a partial update. The returned order is nil when the
// backend does not echo the updated record. The body of a 2xx reply is
// optional: anything other than an order object still counts as success.
func (c *Client) CommitField(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	path := "/orders/" + url.PathEscape(id)
	data, err := c.send(ctx, http.MethodPut, path, patch)
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, nil
	}
	var updated domain.Order
	if err := json.Unmarshal(data, &updated); err != nil {
		logger.Debug().Err(err).Str("order_id", id).Msg("Ignoring undecodable update response")
		return nil, nil
	}
	if updated.ID == "" {
		return nil, nil
	}
	return &updated, nil
}

// PushStats overwrites the stored stats snapshot.
func (c *Client) PushStats(ctx context.Context, stats domain.Stats) error {
	return c.do(ctx, http.MethodPost, "/stats", stats, nil)
}

// TrackView pings the view counter. Failures are swallowed.
func (c *Client) TrackView(ctx context.Context) {
	if err := c.do(ctx, http.MethodPost, "/track-view", nil, nil); err != nil {
		logger.Debug().Err(err).Msg("track view failed")
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	data, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

// send performs one paced request and returns the body of a 2xx reply.
func (c *Client) send(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := utils.ShortID()
	req.Header.Set("X-Request-ID", requestID)
	reqLogger := logger.WithRequestID(requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.APICall(&reqLogger, method, path, 0, time.Since(start), err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		logger.APICall(&reqLogger, method, path, resp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("%s %s: failed to read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
		logger.APICall(&reqLogger, method, path, resp.StatusCode, time.Since(start), statusErr)
		return nil, statusErr
	}
	logger.APICall(&reqLogger, method, path, resp.StatusCode, time.Since(start), nil)

	return data, nil
}
