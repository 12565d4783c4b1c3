package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wonny/quantperf/pkg/config"
	"github.com/wonny/quantperf/pkg/logger"
)

// Client fetches remote resources (ledger documents) with retry and request logs
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	retry      RetryPolicy
}

// RetryPolicy controls exponential backoff on retryable responses
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// DefaultRetryPolicy retries three times starting at one second
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:   3,
	InitialDelay: time.Second,
	MaxDelay:     10 * time.Second,
	Enabled:      true,
}

// New creates a client with a 30s timeout and DefaultRetryPolicy
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		retry:      DefaultRetryPolicy,
	}
}

// NewWithTimeout creates a client with a custom per-attempt timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	c := New(cfg, log)
	c.httpClient.Timeout = timeout
	return c
}

// WithRetry enables retry with maxRetries attempts after the first
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retry.MaxRetries = maxRetries
	c.retry.InitialDelay = initialDelay
	c.retry.Enabled = true
	return c
}

// DisableRetry makes every request a single attempt
func (c *Client) DisableRetry() *Client {
	c.retry.Enabled = false
	return c
}

// Get performs a GET request. Retryable statuses (5xx, 429) and transport
// errors are retried; the last response is returned once retries run out.
// Any other status, 404 included, is returned to the caller as is.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	start := time.Now()
	log := c.logger.WithFields(map[string]interface{}{
		"method": http.MethodGet,
		"url":    url,
	})

	attempts := 1
	if c.retry.Enabled && c.retry.MaxRetries > 0 {
		attempts += c.retry.MaxRetries
	}
	delay := c.retry.InitialDelay

	var resp *http.Response
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if reqErr != nil {
			return nil, fmt.Errorf("failed to create GET request: %w", reqErr)
		}

		resp, err = c.httpClient.Do(req)
		if err == nil && !IsRetryableError(resp.StatusCode) {
			break
		}
		if attempt == attempts {
			break
		}

		if resp != nil {
			resp.Body.Close()
		}
		log.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay,
		}).Warn("Retrying HTTP request")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if c.retry.MaxDelay > 0 && delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}
	}

	if err != nil {
		log.WithError(err).WithField("duration", time.Since(start)).Error("HTTP request failed")
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"status_code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("HTTP request completed")

	return resp, nil
}

// IsRetryableError reports whether a status is worth retrying (5xx, 429)
func IsRetryableError(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
