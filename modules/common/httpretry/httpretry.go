package httpretry

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"fashion-ai-server/modules/common/apperr"
)

// Config - retry/timeout policy for outbound provider calls. This is the
// only place timeout and backoff policy lives; every external call goes
// through Do.
type Config struct {
	MaxRetries int           // total attempts
	Timeout    time.Duration // per-attempt timeout
	RetryDelay time.Duration // base delay, multiplied by attempt number
}

// DefaultConfig - 3 attempts, 30s timeout, 1s linear backoff
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Timeout:    30 * time.Second,
		RetryDelay: 1 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	out := c
	if out.MaxRetries <= 0 {
		out.MaxRetries = 3
	}
	if out.Timeout <= 0 {
		out.Timeout = 30 * time.Second
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = 1 * time.Second
	}
	return out
}

// Do - issue the request built by build, retrying per the config.
//
// Success and client errors (status < 500) return immediately. Server
// errors (5xx) retry; the last attempt returns the erroneous response
// as-is rather than an error. Transport failures retry with linear
// backoff; after the last attempt a timeout-kind error is returned when
// the failure was a deadline abort, a network-kind error otherwise.
//
// build is invoked once per attempt so request bodies are re-created.
func Do(ctx context.Context, cfg Config, build func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	cfg = cfg.withDefaults()

	// Client timeout covers dial, headers and body read per attempt.
	client := &http.Client{Timeout: cfg.Timeout}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err == nil {
			if resp.StatusCode < 500 {
				return resp, nil
			}

			// 5xx: the last attempt returns the response as-is.
			if attempt == cfg.MaxRetries {
				return resp, nil
			}

			log.Printf("⚠️  [Retry] Attempt %d/%d failed with status %d, retrying...",
				attempt, cfg.MaxRetries, resp.StatusCode)
			drain(resp)
		} else {
			lastErr = err

			if attempt == cfg.MaxRetries {
				if isTimeout(err) {
					return nil, apperr.Wrap(apperr.TypeAPITimeout, err)
				}
				return nil, apperr.Wrap(apperr.TypeNetwork, err)
			}

			log.Printf("⚠️  [Retry] Attempt %d/%d failed: %v, retrying...", attempt, cfg.MaxRetries, err)
		}

		delay := cfg.RetryDelay * time.Duration(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, apperr.Wrap(apperr.TypeAPITimeout, ctx.Err())
		}
	}

	// Unreachable: the loop always returns on the last attempt.
	return nil, apperr.Wrap(apperr.TypeUnknown, lastErr)
}

// isTimeout - deadline abort vs other transport failure
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
