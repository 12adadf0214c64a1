package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/maheshrc27/postbridge/internal/metrics"
	"golang.org/x/time/rate"
)

const DefaultTimeout = 30 * time.Second

type ClientOptions struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryWait         time.Duration
	// Limiter, when set, is shared by every client built from these options
	// and takes precedence over RequestsPerSecond.
	Limiter *rate.Limiter
}

// AuthFunc binds a credential to an outgoing request.
type AuthFunc func(r *resty.Request)

// Client performs authenticated calls against one provider's REST API.
type Client struct {
	provider string
	http     *resty.Client
	auth     AuthFunc
	limiter  *rate.Limiter
}

func NewClient(provider string, opts ClientOptions, auth AuthFunc) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 500 * time.Millisecond
	}

	c := &Client{provider: provider, auth: auth, limiter: opts.Limiter}
	if c.limiter == nil && opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(8 * opts.RetryWait).
		AddRetryCondition(retryIdempotent).
		AddRetryHook(func(_ *resty.Response, _ error) {
			metrics.IncProviderRetry(provider)
		}).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if c.limiter == nil {
				return nil
			}
			return c.limiter.Wait(r.Context())
		})
	hc.JSONMarshal = json.Marshal
	hc.JSONUnmarshal = json.Unmarshal
	c.http = hc

	return c
}

// retryIdempotent retries GETs on network errors, 429 and 5xx. Writes are
// never retried here so a timed out create cannot produce a duplicate post.
func retryIdempotent(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= 500
}

// Request performs one call and returns the raw response body, or a
// *ProviderError for network failures and statuses >= 400.
func (c *Client) Request(ctx context.Context, method, path string, body any, query url.Values) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if c.auth != nil {
		c.auth(req)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		metrics.ObserveProviderRequest(c.provider, string(KindTransient), start)
		slog.Warn("provider request failed", "provider", c.provider, "method", method, "path", path, "error", err)
		return nil, newNetworkError(c.provider, err)
	}

	if resp.StatusCode() >= 400 {
		perr := newStatusError(c.provider, resp.StatusCode(), resp.Body())
		metrics.ObserveProviderRequest(c.provider, string(perr.Kind), start)
		slog.Info("provider returned error", "provider", c.provider, "method", method, "path", path, "status", perr.StatusCode, "message", perr.Message)
		return nil, perr
	}

	metrics.ObserveProviderRequest(c.provider, "ok", start)
	return resp.Body(), nil
}

// Object performs a call and decodes a JSON object body.
func (c *Client) Object(ctx context.Context, method, path string, body any, query url.Values) (map[string]any, error) {
	raw, err := c.Request(ctx, method, path, body, query)
	if err != nil {
		return nil, err
	}
	return decodeObject(c.provider, raw)
}

// List performs a call whose body is either a JSON array or an object holding
// the array under one of keys.
func (c *Client) List(ctx context.Context, method, path string, query url.Values, keys ...string) ([]map[string]any, error) {
	raw, err := c.Request(ctx, method, path, nil, query)
	if err != nil {
		return nil, err
	}
	return decodeList(c.provider, raw, keys...)
}
