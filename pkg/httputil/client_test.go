package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantperf/pkg/config"
	"github.com/wonny/quantperf/pkg/logger"
)

// statusServer answers with statuses in order, repeating the last one
func statusServer(t *testing.T, statuses ...int) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		if n > len(statuses) {
			n = len(statuses)
		}
		w.WriteHeader(statuses[n-1])
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newClient() *Client {
	return New(&config.Config{}, logger.Nop())
}

func TestGet_RetriesUntilSuccess(t *testing.T) {
	server, calls := statusServer(t, http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusOK)

	resp, err := newClient().WithRetry(3, time.Millisecond).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestGet_NotFoundIsNotRetried(t *testing.T) {
	server, calls := statusServer(t, http.StatusNotFound)

	resp, err := newClient().WithRetry(3, time.Millisecond).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestGet_ReturnsLastResponseWhenRetriesRunOut(t *testing.T) {
	server, calls := statusServer(t, http.StatusBadGateway)

	resp, err := newClient().WithRetry(2, time.Millisecond).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestGet_DisableRetry(t *testing.T) {
	server, calls := statusServer(t, http.StatusServiceUnavailable, http.StatusOK)

	resp, err := newClient().DisableRetry().Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestGet_CanceledWhileWaitingToRetry(t *testing.T) {
	server, calls := statusServer(t, http.StatusServiceUnavailable)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newClient().WithRetry(5, time.Second).Get(ctx, server.URL)

	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), time.Second, "must not wait out the backoff")
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestGet_CanceledBeforeRequest(t *testing.T) {
	server, calls := statusServer(t, http.StatusOK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient().DisableRetry().Get(ctx, server.URL)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestNewWithTimeout(t *testing.T) {
	c := NewWithTimeout(&config.Config{}, nil, 5*time.Second)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.Equal(t, DefaultRetryPolicy, c.retry)
}

func TestIsRetryableError(t *testing.T) {
	for status, want := range map[int]bool{
		http.StatusOK:                  false,
		http.StatusNotFound:            false,
		http.StatusTeapot:              false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	} {
		assert.Equal(t, want, IsRetryableError(status), "status %d", status)
	}
}
