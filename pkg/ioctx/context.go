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

import "context"

// IO is the capability interface through which application code performs
// side-effecting operations. Every implementation in this package - terminal
// or decorator - satisfies IO, so any implementer is a legal context for
// application code.
//
// The ctx argument carries cancellation and deadlines only; it never
// participates in tracing, recording, or replay matching.
//
// All failures are *OpError values classified by ErrKind. No method returns
// a sentinel value in place of an error.
type IO interface {
	// HTTPGet performs an HTTP GET request. A non-2xx status is not an
	// error: it is returned as a normal response for the caller to branch
	// on. Only transport-level failures (connection refused, timeout, DNS)
	// produce ErrHTTP.
	HTTPGet(ctx context.Context, url string) (*HTTPResponse, error)

	// HTTPPost performs an HTTP POST request with the given body. Status
	// handling matches HTTPGet.
	HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error)

	// ReadFile reads the file at path and returns its contents.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes data to the file at path, creating or truncating it.
	WriteFile(ctx context.Context, path string, data []byte) error

	// ExecCommand runs argv[0] with the remaining elements as arguments and
	// captures its output. A non-zero exit code is not an error: it is
	// reported in the CommandResult. Only a failure to start the process
	// produces an error.
	ExecCommand(ctx context.Context, argv []string) (*CommandResult, error)

	// Log emits a log message at the given level. Terminal implementations
	// never fail a Log call; the error return exists so that replay can
	// surface a mismatch when a Log call diverges from the captured log.
	Log(ctx context.Context, level, message string) error
}

// OpKind identifies one capability operation. The decorator and replay
// machinery treats kinds as opaque labels, so implementations may extend the
// set without touching the tracing, recording, or replay code.
type OpKind string

const (
	OpHTTPGet     OpKind = "http_get"
	OpHTTPPost    OpKind = "http_post"
	OpReadFile    OpKind = "read_file"
	OpWriteFile   OpKind = "write_file"
	OpExecCommand OpKind = "exec_command"
	OpLog         OpKind = "log"
)

// HTTPResponse is the plain-data result of an HTTP operation. The body is
// fully read into Text before the response is returned, so responses can be
// recorded and replayed without live handles.
type HTTPResponse struct {
	StatusCode int               `json:"status_code"`
	Text       string            `json:"text"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Clone returns a deep copy of the response.
func (r *HTTPResponse) Clone() *HTTPResponse {
	if r == nil {
		return nil
	}
	out := &HTTPResponse{StatusCode: r.StatusCode, Text: r.Text}
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	return out
}

// CommandResult is the plain-data result of an executed command.
type CommandResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// Clone returns a copy of the result.
func (r *CommandResult) Clone() *CommandResult {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// LogEntry is one captured log call, retained by Fake for test assertions.
type LogEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
