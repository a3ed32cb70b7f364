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

// Replayer is a terminal IO implementation that reproduces a previously
// captured operation log in order, performing no real IO. Each incoming
// call is matched against the record at the cursor by operation kind and
// argument snapshot; on a match the recorded outcome is reproduced, on a
// mismatch the call fails with ErrReplayMismatch. Divergence is a hard
// contract violation, never a warning: replay determinism is the entire
// point of this mode.
//
// The supplied log is treated as read-only; the cursor only ever advances.
type Replayer struct {
	mu      sync.Mutex
	records []Record
	cursor  int
}

// NewReplayer creates a Replayer over an ordered record log, typically
// Recording.Records obtained from a deserialized capture.
func NewReplayer(records []Record) *Replayer {
	return &Replayer{records: cloneRecords(records)}
}

// Position returns the current cursor position.
func (r *Replayer) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// Exhausted reports whether every record in the log has been consumed.
// Unconsumed trailing records are not an interface-level error; callers
// that require full consumption assert this explicitly.
func (r *Replayer) Exhausted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor >= len(r.records)
}

// next matches an incoming call against the record at the cursor. The
// cursor advances by one on every matched or mismatched attempt; an
// exhausted log leaves it in place.
func (r *Replayer) next(op OpKind, args []string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor >= len(r.records) {
		return Record{}, &OpError{
			Kind:    ErrReplayMismatch,
			Op:      op,
			Message: "log exhausted",
			Actual:  callString(op, args),
		}
	}

	rec := r.records[r.cursor]
	r.cursor++

	if !rec.Matches(op, args) {
		return Record{}, &OpError{
			Kind:     ErrReplayMismatch,
			Op:       op,
			Message:  "call mismatch",
			Expected: rec.CallString(),
			Actual:   callString(op, args),
		}
	}

	return rec, nil
}

// HTTPGet implements IO.
func (r *Replayer) HTTPGet(_ context.Context, url string) (*HTTPResponse, error) {
	return r.replayHTTP(OpHTTPGet, []string{url})
}

// HTTPPost implements IO.
func (r *Replayer) HTTPPost(_ context.Context, url string, body []byte) (*HTTPResponse, error) {
	return r.replayHTTP(OpHTTPPost, []string{url, byteArg(body)})
}

func (r *Replayer) replayHTTP(op OpKind, args []string) (*HTTPResponse, error) {
	rec, err := r.next(op, args)
	if err != nil {
		return nil, err
	}
	if !rec.Outcome.OK {
		return nil, rec.Outcome.Err.reraise(op)
	}
	return rec.Outcome.HTTP.Clone(), nil
}

// ReadFile implements IO.
func (r *Replayer) ReadFile(_ context.Context, path string) ([]byte, error) {
	rec, err := r.next(OpReadFile, []string{path})
	if err != nil {
		return nil, err
	}
	if !rec.Outcome.OK {
		return nil, rec.Outcome.Err.reraise(OpReadFile)
	}
	return append([]byte(nil), rec.Outcome.Data...), nil
}

// WriteFile implements IO.
func (r *Replayer) WriteFile(_ context.Context, path string, data []byte) error {
	rec, err := r.next(OpWriteFile, []string{path, byteArg(data)})
	if err != nil {
		return err
	}
	if !rec.Outcome.OK {
		return rec.Outcome.Err.reraise(OpWriteFile)
	}
	return nil
}

// ExecCommand implements IO.
func (r *Replayer) ExecCommand(_ context.Context, argv []string) (*CommandResult, error) {
	rec, err := r.next(OpExecCommand, argv)
	if err != nil {
		return nil, err
	}
	if !rec.Outcome.OK {
		return nil, rec.Outcome.Err.reraise(OpExecCommand)
	}
	return rec.Outcome.Cmd.Clone(), nil
}

// Log implements IO. Log calls participate fully in replay matching.
func (r *Replayer) Log(_ context.Context, level, message string) error {
	rec, err := r.next(OpLog, []string{level, message})
	if err != nil {
		return err
	}
	if !rec.Outcome.OK {
		return rec.Outcome.Err.reraise(OpLog)
	}
	return nil
}
