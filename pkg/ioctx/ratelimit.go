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

	"golang.org/x/time/rate"
)

// RateLimited wraps exactly one inner IO and applies token-bucket admission
// control before forwarding. Log calls are exempt, matching the Validator's
// treatment of log as outside policy. A wait aborted by context
// cancellation surfaces the context error unwrapped: cancellation is a
// caller concern, not a capability failure.
type RateLimited struct {
	inner   IO
	limiter *rate.Limiter
}

// NewRateLimited creates a RateLimited admitting ops per second with the
// given burst size.
func NewRateLimited(inner IO, opsPerSecond float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(opsPerSecond), burst),
	}
}

// HTTPGet implements IO.
func (l *RateLimited) HTTPGet(ctx context.Context, url string) (*HTTPResponse, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.HTTPGet(ctx, url)
}

// HTTPPost implements IO.
func (l *RateLimited) HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.HTTPPost(ctx, url, body)
}

// ReadFile implements IO.
func (l *RateLimited) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.ReadFile(ctx, path)
}

// WriteFile implements IO.
func (l *RateLimited) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	return l.inner.WriteFile(ctx, path, data)
}

// ExecCommand implements IO.
func (l *RateLimited) ExecCommand(ctx context.Context, argv []string) (*CommandResult, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.ExecCommand(ctx, argv)
}

// Log implements IO. Log calls bypass the limiter.
func (l *RateLimited) Log(ctx context.Context, level, message string) error {
	return l.inner.Log(ctx, level, message)
}
