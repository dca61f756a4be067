// Package backend is the HTTP client for the mock car REST API: user
// registration, login and the car inventory.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/atinyakov/cardash/internal/models"
	"github.com/atinyakov/cardash/internal/observability"
)

const (
	pathRegister = "/users"
	pathLogin    = "/login"
	pathCars     = "/cars"
)

// DefaultBaseURL is the hosted mock server the dashboard was built against.
const DefaultBaseURL = "https://my-json-server.typicode.com/Llang8/cars-api"

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// Client talks to the car backend rooted at a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
	retryDelay time.Duration
	log        *zap.Logger
	metrics    *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithFetchAttempts sets how many times ListCars is tried before giving up.
// Values below 1 are treated as 1. POST calls are never retried.
func WithFetchAttempts(n uint) Option {
	return func(c *Client) {
		if n < 1 {
			n = 1
		}
		c.attempts = n
	}
}

// WithRetryDelay sets the pause between ListCars attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records every call on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient returns a Client for baseURL. The URL must be absolute.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   1,
		retryDelay: 500 * time.Millisecond,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register posts the credentials to /users and returns the raw response body.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (json.RawMessage, error) {
	return c.postCredentials(ctx, "register", pathRegister, creds)
}

// Login posts the credentials to /login and returns the raw response body.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (json.RawMessage, error) {
	return c.postCredentials(ctx, "login", pathLogin, creds)
}

// ListCars fetches the whole inventory in server order.
func (c *Client) ListCars(ctx context.Context) ([]models.Car, error) {
	start := time.Now()

	var cars []models.Car
	err := retry.Do(
		func() error {
			body, err := c.do(ctx, http.MethodGet, pathCars, nil)
			if err != nil {
				var se *StatusError
				if errors.As(err, &se) && se.Code < http.StatusInternalServerError {
					return retry.Unrecoverable(err)
				}
				return err
			}
			var decoded []models.Car
			if err := json.Unmarshal(body, &decoded); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode cars: %w", err))
			}
			cars = decoded
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			c.log.Debug("retrying car list fetch", zap.Uint("attempt", attempt+1), zap.Error(err))
		}),
	)
	c.metrics.ObserveBackendCall("list_cars", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, wrapCallErr(http.MethodGet, pathCars, err)
	}
	if cars == nil {
		cars = []models.Car{}
	}
	return cars, nil
}

func (c *Client) postCredentials(ctx context.Context, call, path string, creds models.Credentials) (json.RawMessage, error) {
	start := time.Now()

	b, err := json.Marshal(creds)
	if err != nil {
		return nil, wrapCallErr(http.MethodPost, path, fmt.Errorf("encode credentials: %w", err))
	}

	body, err := c.do(ctx, http.MethodPost, path, b)
	c.metrics.ObserveBackendCall(call, time.Since(start).Seconds(), err)
	if err != nil {
		return nil, wrapCallErr(http.MethodPost, path, err)
	}
	return json.RawMessage(body), nil
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("backend call settled",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return data, nil
}
