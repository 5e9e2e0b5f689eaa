package util

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
)

// Retrier retries a function with exponential backoff.
type Retrier struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	MaxTries        int
	ShouldRetry     func(err error) bool
	Notify          func(err error, d time.Duration)
}

func NewRetrier() *Retrier {
	return &Retrier{
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  time.Minute,
		MaxTries:        5,
	}
}

// Retry calls f until it succeeds, ShouldRetry rejects its error, the
// tries run out or ctx is canceled. The last error is returned.
func (r *Retrier) Retry(ctx context.Context, f func() error) error {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.InitialInterval,
		MaxInterval:         r.MaxInterval,
		Multiplier:          backoff.DefaultMultiplier,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		MaxElapsedTime:      r.MaxElapsedTime,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	retries := r.MaxTries - 1
	if retries < 0 {
		retries = 0
	}

	return backoff.RetryNotify(func() error {
		err := f()
		if err != nil && r.ShouldRetry != nil && !r.ShouldRetry(err) {
			return &backoff.PermanentError{Err: err}
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx), r.notify)
}

func (r *Retrier) notify(err error, d time.Duration) {
	if r.Notify != nil {
		r.Notify(err, d)
	}
}

// HTTPWithRetry calls do until it gets a response. Connection errors and
// 502, 503 and 504 responses are retried; any other response is returned
// to the caller.
func HTTPWithRetry(ctx context.Context, r *Retrier, do func() (*http.Response, error)) (*http.Response, error) {
	var resp *http.Response
	err := r.Retry(ctx, func() error {
		var err error
		resp, err = do()
		if err != nil {
			return err
		}
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			resp.Body.Close()
			return fmt.Errorf("server unavailable: %s", resp.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
