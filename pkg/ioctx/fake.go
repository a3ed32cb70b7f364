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
	"sync"
)

// FakeConfig holds the canned responses a Fake serves. All maps are copied
// at construction; the Fake never aliases caller-held state.
type FakeConfig struct {
	// FileContents seeds the mutable file store, keyed by path.
	FileContents map[string][]byte

	// HTTPResponses maps URLs to canned responses. The table is immutable
	// for the lifetime of the Fake.
	HTTPResponses map[string]HTTPResponse

	// CommandResults maps space-joined argv strings to canned results.
	CommandResults map[string]CommandResult
}

// Fake is the terminal IO implementation that serves pre-configured
// responses without performing any real IO. Lookups for unmapped resources
// fail loudly rather than defaulting, so missing test setup is never
// silently hidden.
//
// Fake is fully deterministic: identical call sequences against identically
// configured instances always produce identical outcomes.
type Fake struct {
	mu             sync.Mutex
	fileContents   map[string][]byte
	httpResponses  map[string]HTTPResponse
	commandResults map[string]CommandResult
	written        map[string][]byte
	logs           []LogEntry
}

// NewFake creates a Fake serving the given canned responses.
func NewFake(cfg FakeConfig) *Fake {
	f := &Fake{
		fileContents:   make(map[string][]byte, len(cfg.FileContents)),
		httpResponses:  make(map[string]HTTPResponse, len(cfg.HTTPResponses)),
		commandResults: make(map[string]CommandResult, len(cfg.CommandResults)),
		written:        make(map[string][]byte),
	}
	for path, data := range cfg.FileContents {
		f.fileContents[path] = append([]byte(nil), data...)
	}
	for url, resp := range cfg.HTTPResponses {
		f.httpResponses[url] = *resp.Clone()
	}
	for cmd, res := range cfg.CommandResults {
		f.commandResults[cmd] = res
	}
	return f
}

// HTTPGet implements IO, returning the mapped response verbatim. An
// unmapped URL fails with ErrHTTP.
func (f *Fake) HTTPGet(_ context.Context, url string) (*HTTPResponse, error) {
	return f.lookupHTTP(OpHTTPGet, url)
}

// HTTPPost implements IO. The body does not participate in the lookup; the
// table is keyed by URL alone.
func (f *Fake) HTTPPost(_ context.Context, url string, _ []byte) (*HTTPResponse, error) {
	return f.lookupHTTP(OpHTTPPost, url)
}

func (f *Fake) lookupHTTP(op OpKind, url string) (*HTTPResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resp, ok := f.httpResponses[url]
	if !ok {
		return nil, &OpError{Kind: ErrHTTP, Op: op, Resource: url, Message: "no fake response configured"}
	}
	return resp.Clone(), nil
}

// ReadFile implements IO, reading from the file store. A missing path fails
// with ErrFileNotFound.
func (f *Fake) ReadFile(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.fileContents[path]
	if !ok {
		return nil, &OpError{Kind: ErrFileNotFound, Op: OpReadFile, Resource: path, Message: "no fake content configured"}
	}
	return append([]byte(nil), data...), nil
}

// WriteFile implements IO, inserting or overwriting the path in the file
// store. It always succeeds, and the written content is visible to
// subsequent ReadFile calls.
func (f *Fake) WriteFile(_ context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := append([]byte(nil), data...)
	f.fileContents[path] = snapshot
	f.written[path] = snapshot
	return nil
}

// ExecCommand implements IO, returning the canned result for the
// space-joined argv. An unmapped command fails with ErrExec.
func (f *Fake) ExecCommand(_ context.Context, argv []string) (*CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.Join(argv, " ")
	res, ok := f.commandResults[key]
	if !ok {
		return nil, &OpError{Kind: ErrExec, Op: OpExecCommand, Resource: key, Message: "no fake result configured"}
	}
	return res.Clone(), nil
}

// Log implements IO, appending the entry to an internal list for later
// inspection. It produces no externally visible effect and always succeeds.
func (f *Fake) Log(_ context.Context, level, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logs = append(f.logs, LogEntry{Level: level, Message: message})
	return nil
}

// WrittenFiles returns a copy of the paths and contents written through
// this Fake.
func (f *Fake) WrittenFiles() map[string][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string][]byte, len(f.written))
	for path, data := range f.written {
		out[path] = append([]byte(nil), data...)
	}
	return out
}

// Logs returns a copy of the captured log entries in call order.
func (f *Fake) Logs() []LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]LogEntry(nil), f.logs...)
}
