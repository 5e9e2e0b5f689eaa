package util

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
)

func fastRetrier(tries int) *Retrier {
	return &Retrier{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxTries:        tries,
	}
}

func TestRetryMaxTries(t *testing.T) {
	calls := 0
	notified := 0
	r := fastRetrier(3)
	r.Notify = func(error, time.Duration) { notified++ }

	err := r.Retry(context.Background(), func() error {
		calls++
		return errors.New("always error")
	})
	assert.EqualError(t, err, "always error")
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, notified)
}

func TestRetrySucceeds(t *testing.T) {
	calls := 0
	err := fastRetrier(5).Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryShouldRetry(t *testing.T) {
	fatal := errors.New("fatal")
	r := fastRetrier(5)
	r.ShouldRetry = func(err error) bool { return !errors.Is(err, fatal) }

	calls := 0
	err := r.Retry(context.Background(), func() error {
		calls++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestHTTPWithRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := HTTPWithRetry(context.Background(), fastRetrier(5), func() (*http.Response, error) {
		return http.Get(srv.URL)
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPWithRetryReturnsClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	resp, err := HTTPWithRetry(context.Background(), fastRetrier(5), func() (*http.Response, error) {
		return http.Get(srv.URL)
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
