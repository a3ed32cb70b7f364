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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyIO fails a fixed number of times before succeeding, counting calls.
type flakyIO struct {
	failures int32
	calls    atomic.Int32
	failWith ErrKind
}

func (f *flakyIO) attempt(op OpKind) error {
	n := f.calls.Add(1)
	if n <= atomic.LoadInt32(&f.failures) {
		return &OpError{Kind: f.failWith, Op: op, Message: "transient"}
	}
	return nil
}

func (f *flakyIO) HTTPGet(_ context.Context, _ string) (*HTTPResponse, error) {
	if err := f.attempt(OpHTTPGet); err != nil {
		return nil, err
	}
	return &HTTPResponse{StatusCode: 200, Text: "ok"}, nil
}

func (f *flakyIO) HTTPPost(_ context.Context, _ string, _ []byte) (*HTTPResponse, error) {
	if err := f.attempt(OpHTTPPost); err != nil {
		return nil, err
	}
	return &HTTPResponse{StatusCode: 200}, nil
}

func (f *flakyIO) ReadFile(_ context.Context, _ string) ([]byte, error) {
	if err := f.attempt(OpReadFile); err != nil {
		return nil, err
	}
	return []byte("data"), nil
}

func (f *flakyIO) WriteFile(_ context.Context, _ string, _ []byte) error {
	return f.attempt(OpWriteFile)
}

func (f *flakyIO) ExecCommand(_ context.Context, _ []string) (*CommandResult, error) {
	if err := f.attempt(OpExecCommand); err != nil {
		return nil, err
	}
	return &CommandResult{}, nil
}

func (f *flakyIO) Log(_ context.Context, _, _ string) error {
	return f.attempt(OpLog)
}

func fastRetryConfig(attempts int, kinds ...ErrKind) *RetryConfig {
	if kinds == nil {
		kinds = []ErrKind{ErrHTTP}
	}
	return &RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
		RetryableKinds: kinds,
	}
}

func TestRetrierRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyIO{failures: 2, failWith: ErrHTTP}
	retrier, err := NewRetrier(inner, fastRetryConfig(3))
	require.NoError(t, err)

	resp, err := retrier.HTTPGet(context.Background(), "https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetrierExhaustsAttempts(t *testing.T) {
	inner := &flakyIO{failures: 10, failWith: ErrHTTP}
	retrier, err := NewRetrier(inner, fastRetryConfig(3))
	require.NoError(t, err)

	_, err = retrier.HTTPGet(context.Background(), "https://api.example.com")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrHTTP))
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetrierNonRetryableFailsImmediately(t *testing.T) {
	inner := &flakyIO{failures: 10, failWith: ErrFileNotFound}
	retrier, err := NewRetrier(inner, fastRetryConfig(3))
	require.NoError(t, err)

	_, err = retrier.ReadFile(context.Background(), "/gone")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrFileNotFound))
	assert.Equal(t, int32(1), inner.calls.Load(), "non-retryable kinds get a single attempt")
}

func TestRetrierCustomRetryableKinds(t *testing.T) {
	inner := &flakyIO{failures: 1, failWith: ErrExec}
	retrier, err := NewRetrier(inner, fastRetryConfig(3, ErrExec))
	require.NoError(t, err)

	_, err = retrier.ExecCommand(context.Background(), []string{"flaky"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestRetrierContextCancellation(t *testing.T) {
	inner := &flakyIO{failures: 100, failWith: ErrHTTP}
	cfg := &RetryConfig{
		MaxAttempts:    10,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
		BackoffFactor:  2.0,
		RetryableKinds: []ErrKind{ErrHTTP},
	}
	retrier, err := NewRetrier(inner, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = retrier.HTTPGet(ctx, "https://api.example.com")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrHTTP), "cancellation returns the last call error")
	assert.Less(t, time.Since(start), time.Second, "backoff sleep must be interruptible")
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRetrierLogNotRetried(t *testing.T) {
	inner := &flakyIO{failures: 10, failWith: ErrHTTP}
	retrier, err := NewRetrier(inner, fastRetryConfig(3))
	require.NoError(t, err)

	require.Error(t, retrier.Log(context.Background(), "info", "x"))
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRetrierNilConfigUsesDefaults(t *testing.T) {
	retrier, err := NewRetrier(NewFake(FakeConfig{}), nil)
	require.NoError(t, err)
	require.NotNil(t, retrier)
	assert.Equal(t, 3, retrier.cfg.MaxAttempts)
	assert.True(t, retrier.cfg.IsRetryable(ErrHTTP))
}

func TestRetryConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RetryConfig)
		wantErr string
	}{
		{
			name:   "defaults valid",
			mutate: func(c *RetryConfig) {},
		},
		{
			name:    "zero attempts",
			mutate:  func(c *RetryConfig) { c.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
		{
			name:    "negative initial backoff",
			mutate:  func(c *RetryConfig) { c.InitialBackoff = -time.Second },
			wantErr: "initial_backoff",
		},
		{
			name:    "max below initial",
			mutate:  func(c *RetryConfig) { c.MaxBackoff = c.InitialBackoff / 2 },
			wantErr: "max_backoff",
		},
		{
			name:    "factor below one",
			mutate:  func(c *RetryConfig) { c.BackoffFactor = 0.5 },
			wantErr: "backoff_factor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRetryConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
