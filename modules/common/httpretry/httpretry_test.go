package httpretry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashion-ai-server/modules/common/apperr"
)

func testConfig() Config {
	return Config{
		MaxRetries: 3,
		Timeout:    2 * time.Second,
		RetryDelay: time.Millisecond,
	}
}

func buildGet(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, "GET", url, nil)
	}
}

func TestDoSuccessFirstAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), testConfig(), buildGet(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoClientErrorDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), testConfig(), buildGet(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoServerErrorRetriesThenReturnsResponse(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), testConfig(), buildGet(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	// The last attempt hands back the 5xx response instead of an error.
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoServerErrorRecoversMidway(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := Do(context.Background(), testConfig(), buildGet(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoTimeoutReturnsTimeoutKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := Config{MaxRetries: 2, Timeout: 50 * time.Millisecond, RetryDelay: time.Millisecond}

	resp, err := Do(context.Background(), cfg, buildGet(srv.URL))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, apperr.TypeAPITimeout, apperr.TypeOf(err))
}

func TestDoConnectionFailureReturnsNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := Config{MaxRetries: 2, Timeout: time.Second, RetryDelay: time.Millisecond}

	resp, err := Do(context.Background(), cfg, buildGet(url))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, apperr.TypeNetwork, apperr.TypeOf(err))
}

func TestDoBuildErrorIsNotRetried(t *testing.T) {
	var builds int32
	_, err := Do(context.Background(), testConfig(), func(ctx context.Context) (*http.Request, error) {
		atomic.AddInt32(&builds, 1)
		return nil, assert.AnError
	})

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}
