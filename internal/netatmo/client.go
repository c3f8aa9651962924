package netatmo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL   = "https://api.netatmo.com"
	defaultUserAgent = "homedash/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 4 << 10
)

// ErrCircuitOpen is returned while the breaker is rejecting requests after
// repeated server failures.
var ErrCircuitOpen = errors.New("netatmo api circuit open")

// StatusError is a non-2xx reply from the API.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// Client talks to the Netatmo weather API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	breaker   *gobreaker.CircuitBreaker
}

// NewClient builds a Client for baseURL; empty uses the public API. A
// non-positive timeout uses the default.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "netatmo",
			MaxRequests: 1,
			Interval:    5 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// HTTPClient returns the underlying HTTP client so the token exchange can
// share its timeout and transport.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// FetchStations retrieves the weather stations of the account.
func (c *Client) FetchStations(ctx context.Context, accessToken string) (*StationsResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload StationsResponse
	if err := c.do(ctx, "/api/getstationsdata", accessToken, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchHomeCoaches retrieves the home coach (room) devices of the account.
func (c *Client) FetchHomeCoaches(ctx context.Context, accessToken string) (*HomeCoachesResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload HomeCoachesResponse
	if err := c.do(ctx, "/api/gethomecoachsdata", accessToken, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type reply struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, path, accessToken string, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	// Only transport errors and 5xx/429 count against the breaker. A 4xx is
	// reported after Execute returns.
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return nil, statusError(path, resp.StatusCode, body)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return reply{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return err
	}

	r, ok := result.(reply)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	if r.status >= 400 {
		return statusError(path, r.status, r.body)
	}
	if err := json.Unmarshal(r.body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(path string, code int, body []byte) *StatusError {
	e := &StatusError{Path: path, Code: code}
	var payload errorResponse
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Error.Message
	}
	return e
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse netatmo base_url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
