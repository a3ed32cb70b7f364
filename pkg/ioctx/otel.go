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
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tombee/capio/pkg/ioctx"

// Spans wraps exactly one inner IO and opens an OpenTelemetry span around
// every capability call. Span names follow "ioctx.<op>"; the call's primary
// resource is attached as an attribute and failures are recorded with error
// status. Results and failures are propagated unchanged.
type Spans struct {
	inner  IO
	tracer trace.Tracer
}

// NewSpans creates a Spans decorator over inner. A nil provider uses the
// global tracer provider.
func NewSpans(inner IO, tp trace.TracerProvider) *Spans {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Spans{inner: inner, tracer: tp.Tracer(tracerName)}
}

func (s *Spans) start(ctx context.Context, op OpKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "ioctx."+string(op), trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
	}
	span.End()
}

// HTTPGet implements IO.
func (s *Spans) HTTPGet(ctx context.Context, url string) (*HTTPResponse, error) {
	ctx, span := s.start(ctx, OpHTTPGet, attribute.String("ioctx.url", url))
	resp, err := s.inner.HTTPGet(ctx, url)
	if err == nil {
		span.SetAttributes(attribute.Int("ioctx.status_code", resp.StatusCode))
	}
	finish(span, err)
	return resp, err
}

// HTTPPost implements IO.
func (s *Spans) HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error) {
	ctx, span := s.start(ctx, OpHTTPPost,
		attribute.String("ioctx.url", url),
		attribute.Int("ioctx.body_bytes", len(body)),
	)
	resp, err := s.inner.HTTPPost(ctx, url, body)
	if err == nil {
		span.SetAttributes(attribute.Int("ioctx.status_code", resp.StatusCode))
	}
	finish(span, err)
	return resp, err
}

// ReadFile implements IO.
func (s *Spans) ReadFile(ctx context.Context, path string) ([]byte, error) {
	ctx, span := s.start(ctx, OpReadFile, attribute.String("ioctx.path", path))
	data, err := s.inner.ReadFile(ctx, path)
	finish(span, err)
	return data, err
}

// WriteFile implements IO.
func (s *Spans) WriteFile(ctx context.Context, path string, data []byte) error {
	ctx, span := s.start(ctx, OpWriteFile,
		attribute.String("ioctx.path", path),
		attribute.Int("ioctx.body_bytes", len(data)),
	)
	err := s.inner.WriteFile(ctx, path, data)
	finish(span, err)
	return err
}

// ExecCommand implements IO.
func (s *Spans) ExecCommand(ctx context.Context, argv []string) (*CommandResult, error) {
	ctx, span := s.start(ctx, OpExecCommand, attribute.String("ioctx.command", strings.Join(argv, " ")))
	res, err := s.inner.ExecCommand(ctx, argv)
	finish(span, err)
	return res, err
}

// Log implements IO. Log calls are forwarded without a span; wrapping every
// log line in a span would swamp the trace.
func (s *Spans) Log(ctx context.Context, level, message string) error {
	return s.inner.Log(ctx, level, message)
}
