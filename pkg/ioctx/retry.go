// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ioctx

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures the Retrier decorator.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (default: 3)
	MaxAttempts int

	// InitialBackoff is the initial backoff duration (default: 1s)
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration (default: 30s)
	MaxBackoff time.Duration

	// BackoffFactor is the exponential backoff multiplier (default: 2.0)
	BackoffFactor float64

	// RetryableKinds is the set of error kinds that should be retried.
	// Default: [http_error]
	RetryableKinds []ErrKind
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		RetryableKinds: []ErrKind{ErrHTTP},
	}
}

// Validate checks if the retry configuration is valid.
func (c *RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialBackoff < 0 {
		return fmt.Errorf("initial_backoff must be non-negative, got %v", c.InitialBackoff)
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff (%v) must be >= initial_backoff (%v)", c.MaxBackoff, c.InitialBackoff)
	}
	if c.BackoffFactor < 1.0 {
		return fmt.Errorf("backoff_factor must be >= 1.0, got %f", c.BackoffFactor)
	}
	return nil
}

// IsRetryable returns true if failures of the given kind should be retried.
func (c *RetryConfig) IsRetryable(kind ErrKind) bool {
	for _, k := range c.RetryableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Retrier wraps exactly one inner IO and retries calls that fail with a
// retryable error kind, using exponential backoff with jitter. The terminal
// implementations never retry themselves; this decorator is where retry
// policy lives when a caller wants one.
type Retrier struct {
	inner IO
	cfg   RetryConfig
}

// NewRetrier creates a Retrier over inner. A nil config uses
// DefaultRetryConfig. Returns an error if the config is invalid.
func NewRetrier(inner IO, cfg *RetryConfig) (*Retrier, error) {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Retrier{inner: inner, cfg: *cfg}, nil
}

// do runs fn up to MaxAttempts times. Backoff sleeps are interruptible by
// the context; on cancellation the last error is returned.
func (r *Retrier) do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !r.cfg.IsRetryable(KindOf(lastErr)) {
			return lastErr
		}
		if attempt >= r.cfg.MaxAttempts {
			return lastErr
		}

		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}

// backoff computes the delay before the next attempt: exponential growth
// capped at MaxBackoff, with jitter in [75%, 125%].
func (r *Retrier) backoff(attempt int) time.Duration {
	base := float64(r.cfg.InitialBackoff) * math.Pow(r.cfg.BackoffFactor, float64(attempt-1))
	if base > float64(r.cfg.MaxBackoff) {
		base = float64(r.cfg.MaxBackoff)
	}
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(base * jitter)
}

// HTTPGet implements IO.
func (r *Retrier) HTTPGet(ctx context.Context, url string) (*HTTPResponse, error) {
	var resp *HTTPResponse
	err := r.do(ctx, func() error {
		var callErr error
		resp, callErr = r.inner.HTTPGet(ctx, url)
		return callErr
	})
	return resp, err
}

// HTTPPost implements IO.
func (r *Retrier) HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error) {
	var resp *HTTPResponse
	err := r.do(ctx, func() error {
		var callErr error
		resp, callErr = r.inner.HTTPPost(ctx, url, body)
		return callErr
	})
	return resp, err
}

// ReadFile implements IO.
func (r *Retrier) ReadFile(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := r.do(ctx, func() error {
		var callErr error
		data, callErr = r.inner.ReadFile(ctx, path)
		return callErr
	})
	return data, err
}

// WriteFile implements IO.
func (r *Retrier) WriteFile(ctx context.Context, path string, data []byte) error {
	return r.do(ctx, func() error {
		return r.inner.WriteFile(ctx, path, data)
	})
}

// ExecCommand implements IO.
func (r *Retrier) ExecCommand(ctx context.Context, argv []string) (*CommandResult, error) {
	var res *CommandResult
	err := r.do(ctx, func() error {
		var callErr error
		res, callErr = r.inner.ExecCommand(ctx, argv)
		return callErr
	})
	return res, err
}

// Log implements IO. Log calls are forwarded without retry.
func (r *Retrier) Log(ctx context.Context, level, message string) error {
	return r.inner.Log(ctx, level, message)
}
