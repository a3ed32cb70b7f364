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
	"sync"
)

// opLog is the append-only record sequence shared by Tracer and Recorder.
// Seq is assigned at append time, so it is strictly increasing from 0 by
// construction. Callers provide their own locking.
type opLog struct {
	records []Record
}

func (l *opLog) append(op OpKind, args []string, out Outcome) {
	l.records = append(l.records, Record{
		Seq:     len(l.records),
		Op:      op,
		Args:    append([]string(nil), args...),
		Outcome: out,
	})
}

func (l *opLog) snapshot() []Record {
	return cloneRecords(l.records)
}

// Tracer wraps exactly one inner IO and appends a Record for every
// capability call, success or failure, preserving call order. It never
// suppresses or alters the inner result. The trace is observable mid-flight:
// partial traces are valid after partial execution.
//
// The inner call and the append execute as one atomic unit under the
// instance mutex, so concurrent callers observe a well-defined total order.
type Tracer struct {
	mu    sync.Mutex
	inner IO
	log   opLog
}

// NewTracer creates a Tracer over inner with an empty trace.
func NewTracer(inner IO) *Tracer {
	return &Tracer{inner: inner}
}

// Trace returns a copy of the operation records appended so far.
func (t *Tracer) Trace() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.snapshot()
}

// Len returns the number of records in the trace.
func (t *Tracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.log.records)
}

// HTTPGet implements IO.
func (t *Tracer) HTTPGet(ctx context.Context, url string) (*HTTPResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	resp, err := t.inner.HTTPGet(ctx, url)
	t.log.append(OpHTTPGet, []string{url}, httpOutcome(resp, err))
	return resp, err
}

// HTTPPost implements IO.
func (t *Tracer) HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	resp, err := t.inner.HTTPPost(ctx, url, body)
	t.log.append(OpHTTPPost, []string{url, byteArg(body)}, httpOutcome(resp, err))
	return resp, err
}

// ReadFile implements IO.
func (t *Tracer) ReadFile(ctx context.Context, path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := t.inner.ReadFile(ctx, path)
	t.log.append(OpReadFile, []string{path}, dataOutcome(data, err))
	return data, err
}

// WriteFile implements IO.
func (t *Tracer) WriteFile(ctx context.Context, path string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.inner.WriteFile(ctx, path, data)
	t.log.append(OpWriteFile, []string{path, byteArg(data)}, unitOutcome(err))
	return err
}

// ExecCommand implements IO.
func (t *Tracer) ExecCommand(ctx context.Context, argv []string) (*CommandResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	res, err := t.inner.ExecCommand(ctx, argv)
	t.log.append(OpExecCommand, append([]string(nil), argv...), cmdOutcome(res, err))
	return res, err
}

// Log implements IO. Log calls participate fully in tracing.
func (t *Tracer) Log(ctx context.Context, level, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.inner.Log(ctx, level, message)
	t.log.append(OpLog, []string{level, message}, unitOutcome(err))
	return err
}
