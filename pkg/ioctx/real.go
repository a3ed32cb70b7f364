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
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"

	caplog "github.com/tombee/capio/internal/log"
	"github.com/tombee/capio/pkg/httpclient"
)

// Real is the terminal IO implementation that performs genuine operations
// against the network and operating system. It never retries: retry policy
// belongs to the caller or a Retrier decorator.
type Real struct {
	client *http.Client
	logger *slog.Logger
}

// RealOption customizes a Real instance.
type RealOption func(*Real)

// WithHTTPClient replaces the default hardened HTTP client.
func WithHTTPClient(client *http.Client) RealOption {
	return func(r *Real) {
		r.client = client
	}
}

// WithLogger replaces the default structured logger used by Log.
func WithLogger(logger *slog.Logger) RealOption {
	return func(r *Real) {
		r.logger = logger
	}
}

// NewReal creates a Real IO. By default it uses the httpclient factory for
// HTTP and an environment-configured slog logger for Log.
func NewReal(opts ...RealOption) *Real {
	r := &Real{}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = httpclient.Default()
	}
	if r.logger == nil {
		r.logger = caplog.WithComponent(caplog.New(caplog.FromEnv()), "ioctx")
	}
	return r
}

// HTTPGet implements IO. Transport failures produce ErrHTTP; a non-2xx
// status is returned as a normal response.
func (r *Real) HTTPGet(ctx context.Context, url string) (*HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &OpError{Kind: ErrHTTP, Op: OpHTTPGet, Resource: url, Message: "invalid request", Cause: err}
	}
	return r.do(OpHTTPGet, req)
}

// HTTPPost implements IO.
func (r *Real) HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &OpError{Kind: ErrHTTP, Op: OpHTTPPost, Resource: url, Message: "invalid request", Cause: err}
	}
	return r.do(OpHTTPPost, req)
}

func (r *Real) do(op OpKind, req *http.Request) (*HTTPResponse, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &OpError{Kind: ErrHTTP, Op: op, Resource: req.URL.String(), Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &OpError{Kind: ErrHTTP, Op: op, Resource: req.URL.String(), Message: "reading response body", Cause: err}
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Text:       string(body),
		Headers:    headers,
	}, nil
}

// ReadFile implements IO.
func (r *Real) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mapFileError(OpReadFile, path, err)
	}
	return data, nil
}

// WriteFile implements IO. Files are created with mode 0644.
func (r *Real) WriteFile(_ context.Context, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return mapFileError(OpWriteFile, path, err)
	}
	return nil
}

// mapFileError classifies an OS filesystem error. Anything that is not a
// missing file is reported as a permission failure with the cause attached.
func mapFileError(op OpKind, path string, err error) error {
	kind := ErrPermission
	if errors.Is(err, fs.ErrNotExist) {
		kind = ErrFileNotFound
	}
	return &OpError{Kind: kind, Op: op, Resource: path, Cause: err}
}

// ExecCommand implements IO. A non-zero exit code is reported in the result,
// not as an error; only a failure to start the process fails the call.
func (r *Real) ExecCommand(ctx context.Context, argv []string) (*CommandResult, error) {
	if len(argv) == 0 {
		return nil, &OpError{Kind: ErrExec, Op: OpExecCommand, Message: "empty command"}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			kind := ErrExec
			if errors.Is(err, exec.ErrNotFound) {
				kind = ErrFileNotFound
			}
			return nil, &OpError{Kind: kind, Op: OpExecCommand, Resource: argv[0], Message: "starting command", Cause: err}
		}
	}

	return &CommandResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// Log implements IO, writing through the structured logger. It always
// succeeds.
func (r *Real) Log(ctx context.Context, level, message string) error {
	r.logger.Log(ctx, caplog.ParseLevel(level), message)
	return nil
}
