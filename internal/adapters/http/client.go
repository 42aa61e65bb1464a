package http

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	apperrors "tokenkeeper/internal/errors"
)

const (
	// Rate limiting configuration.
	rateLimitRequestsPerSecond = 10
	rateLimitBurst             = 20

	userAgent = "tokenkeeper"
)

const (
	// Standard HTTP content types.
	contentTypeJSON = "application/json"
)

// Adapter is an HTTP client adapter using resty with rate limiting.
// Retries are left to callers, which know whether a request is safe to repeat.
type Adapter struct {
	client  *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewAdapter creates a new HTTP adapter with rate limiting.
// Rate limit: 10 requests per second with burst of 20.
func NewAdapter(timeout time.Duration, insecureSkipVerify bool, logger *slog.Logger) *Adapter {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", contentTypeJSON).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: insecureSkipVerify, //nolint:gosec // User-configurable for self-managed instances
		})

	a := &Adapter{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rateLimitRequestsPerSecond), rateLimitBurst),
		logger:  logger,
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return a.limiter.Wait(req.Context())
	})

	// Only method and URL are logged; headers carry the credential.
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.DebugContext(req.Context(), "HTTP request",
			"method", req.Method,
			"url", req.URL,
		)
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.DebugContext(resp.Request.Context(), "HTTP response",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
		)
		return nil
	})

	return a
}

// GetWithAuth performs a GET request with authentication.
func (a *Adapter) GetWithAuth(ctx context.Context, url, token string) (*http.Response, error) {
	return a.do(ctx, http.MethodGet, url, token, nil)
}

// PostWithAuth performs a POST request with authentication and optional JSON payload.
func (a *Adapter) PostWithAuth(ctx context.Context, url, token string, payload any) (*http.Response, error) {
	return a.do(ctx, http.MethodPost, url, token, payload)
}

// PutWithAuth performs a PUT request with authentication and optional JSON payload.
func (a *Adapter) PutWithAuth(ctx context.Context, url, token string, payload any) (*http.Response, error) {
	return a.do(ctx, http.MethodPut, url, token, payload)
}

// DeleteWithAuth performs a DELETE request with authentication.
func (a *Adapter) DeleteWithAuth(ctx context.Context, url, token string) (*http.Response, error) {
	return a.do(ctx, http.MethodDelete, url, token, nil)
}

// SetRateLimit allows configuring the rate limiter after creation.
func (a *Adapter) SetRateLimit(requestsPerSecond float64, burst int) {
	a.limiter.SetLimit(rate.Limit(requestsPerSecond))
	a.limiter.SetBurst(burst)
}

func (a *Adapter) do(ctx context.Context, method, url, token string, payload any) (*http.Response, error) {
	request := a.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetDoNotParseResponse(true)

	if payload != nil {
		request.SetHeader("Content-Type", contentTypeJSON).SetBody(payload)
	}

	resp, err := request.Execute(method, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Handle resty marshaling errors
		if strings.Contains(err.Error(), "unsupported 'Body' type/value") {
			return nil, apperrors.NewConfigurationError("payload", "", "failed to prepare request payload", err)
		}
		return nil, apperrors.NewNetworkError(method, url, err)
	}
	return resp.RawResponse, nil
}
