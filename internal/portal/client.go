package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 4 << 20

// IdempotencyHeader carries the de-duplication key of mutating calls
const IdempotencyHeader = "Idempotency-Key"

// Config configures the upstream member API client
type Config struct {
	BaseURL       string
	APIToken      string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// Client calls the upstream member API. Every call is bound to the caller's
// context and to the configured timeout. Nothing is retried.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Client. When httpClient is nil an instrumented client is used.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		timeout: cfg.Timeout,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

type envelope struct {
	Success *bool               `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

type call struct {
	method         string
	path           string
	query          url.Values
	body           any
	idempotencyKey string
}

func (c *Client) do(ctx context.Context, cl call, out any) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if cl.idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, cl.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	env := &envelope{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			if resp.StatusCode >= 300 {
				return nil, &APIError{StatusCode: resp.StatusCode}
			}
			return nil, fmt.Errorf("failed to decode upstream response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message, Errors: env.Errors}
	}

	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode upstream data: %w", err)
		}
	}
	return env, nil
}

func memberPath(memberID string, parts ...string) string {
	segments := append([]string{"/m", url.PathEscape(memberID)}, parts...)
	return strings.Join(segments, "/")
}

func contactPath(contactID int64, parts ...string) string {
	segments := append([]string{"/public/contacts", fmt.Sprint(contactID)}, parts...)
	return strings.Join(segments, "/")
}
