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
	"time"

	"github.com/google/uuid"
)

// Recorder wraps exactly one inner IO and accumulates an ordered,
// serializable log of operation records. Its forwarding contract is the same
// as Tracer's, but the log is exposed only through Recording, which returns
// an immutable snapshot suitable for durable capture and later replay.
type Recorder struct {
	mu        sync.Mutex
	inner     IO
	id        string
	createdAt time.Time
	log       opLog
}

// NewRecorder creates a Recorder over inner with a fresh identity and an
// empty log.
func NewRecorder(inner IO) *Recorder {
	return &Recorder{
		inner:     inner,
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
	}
}

// ID returns the recorder's unique identity, stamped on every snapshot.
func (r *Recorder) ID() string {
	return r.id
}

// Recording returns an immutable snapshot of the log at the time of the
// call. Snapshots have value semantics: records captured after the call, and
// mutations of the returned value, never affect each other or the live log.
func (r *Recorder) Recording() Recording {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Recording{
		ID:        r.id,
		CreatedAt: r.createdAt,
		Records:   r.log.snapshot(),
	}
}

// HTTPGet implements IO.
func (r *Recorder) HTTPGet(ctx context.Context, url string) (*HTTPResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp, err := r.inner.HTTPGet(ctx, url)
	r.log.append(OpHTTPGet, []string{url}, httpOutcome(resp, err))
	return resp, err
}

// HTTPPost implements IO.
func (r *Recorder) HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp, err := r.inner.HTTPPost(ctx, url, body)
	r.log.append(OpHTTPPost, []string{url, byteArg(body)}, httpOutcome(resp, err))
	return resp, err
}

// ReadFile implements IO.
func (r *Recorder) ReadFile(ctx context.Context, path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.inner.ReadFile(ctx, path)
	r.log.append(OpReadFile, []string{path}, dataOutcome(data, err))
	return data, err
}

// WriteFile implements IO.
func (r *Recorder) WriteFile(ctx context.Context, path string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.inner.WriteFile(ctx, path, data)
	r.log.append(OpWriteFile, []string{path, byteArg(data)}, unitOutcome(err))
	return err
}

// ExecCommand implements IO.
func (r *Recorder) ExecCommand(ctx context.Context, argv []string) (*CommandResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.inner.ExecCommand(ctx, argv)
	r.log.append(OpExecCommand, append([]string(nil), argv...), cmdOutcome(res, err))
	return res, err
}

// Log implements IO. Log calls participate fully in recording so replay can
// match them.
func (r *Recorder) Log(ctx context.Context, level, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.inner.Log(ctx, level, message)
	r.log.append(OpLog, []string{level, message}, unitOutcome(err))
	return err
}
