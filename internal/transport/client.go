package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/internal/logging"
)

const maxBodySize = 4 << 20 // 4MB

var errServerStatus = errors.New("server returned 5xx")

// TokenSource supplies the bearer token for authenticated endpoints.
type TokenSource interface {
	Token() (string, error)
}

// Observer receives one call per completed request.
type Observer interface {
	ObserveRequest(method, path string, status int, elapsed time.Duration)
}

type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

type Client struct {
	baseURL   string
	timeout   time.Duration
	http      *http.Client
	tokens    TokenSource
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	observer  Observer
	userAgent string
	logger    *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithObserver(o Observer) Option {
	return func(cl *Client) { cl.observer = o }
}

func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func WithBreaker(s BreakerSettings) Option {
	return func(cl *Client) { cl.breaker = newBreaker(s, cl) }
}

func New(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens:    tokens,
		userAgent: "storefront",
		logger:    logging.New("transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = newBreaker(BreakerSettings{FailureThreshold: 5}, c)
	}
	return c
}

func newBreaker(s BreakerSettings, c *Client) *gobreaker.CircuitBreaker[*http.Response] {
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A cancelled call says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// Do issues one request. body is JSON-encoded when non-nil; out receives the
// decoded 2xx payload when non-nil. Every failure is an *Error.
func (c *Client) Do(ctx context.Context, ep Endpoint, headers http.Header, body, out any) error {
	var token string
	if ep.Auth {
		t, err := c.tokens.Token()
		if err != nil || t == "" {
			return &Error{Kind: KindUnauthorized, Detail: "missing access token", Err: err}
		}
		token = t
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnknown, Detail: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, ep.Method, c.baseURL+ep.Path, reader)
	if err != nil {
		return &Error{Kind: KindUnknown, Detail: "failed to build request", Err: err}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})
	elapsed := time.Since(start)

	logger := logging.FromCtx(ctx, c.logger)
	if err != nil && !errors.Is(err, errServerStatus) {
		c.observe(ep, 0, elapsed)
		logger.Warn("backend request failed", "endpoint", ep.String(), "error", err)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &Error{Kind: KindUnknown, Detail: "service temporarily unavailable", Err: err}
		}
		return &Error{Kind: KindUnknown, Detail: "network error", Err: err}
	}
	defer resp.Body.Close()
	c.observe(ep, resp.StatusCode, elapsed)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Detail: "failed to read response", Err: err}
	}

	logger.Debug("backend request", "endpoint", ep.String(), "status", resp.StatusCode, "elapsed_ms", elapsed.Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errorDetail(raw)
		logger.Debug("backend error body", "endpoint", ep.String(), "status", resp.StatusCode, "detail", detail)
		return statusError(resp.StatusCode, detail)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindDecoding, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode %s: %w", ep.Route(), err)}
	}
	return nil
}

func (c *Client) observe(ep Endpoint, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(ep.Method, ep.Route(), status, elapsed)
	}
}

// errorDetail pulls a human-readable message out of an error body, with
// credentials and card data scrubbed.
func errorDetail(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := body[key].(string); ok && s != "" {
				return logging.RedactText(s)
			}
		}
		if len(body) == 0 {
			return ""
		}
		return truncate(logging.RedactText(string(logging.RedactJSON(raw))))
	}
	return truncate(logging.RedactText(strings.TrimSpace(string(raw))))
}

func truncate(text string) string {
	if len(text) > 200 {
		return text[:200]
	}
	return text
}
