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
	"errors"
	"fmt"
	"strings"
)

// ErrKind classifies capability failures for programmatic handling.
// Callers branch on kinds via KindOf or errors.As, never on error text.
type ErrKind string

const (
	// ErrHTTP indicates a transport-level HTTP failure, or a Fake lookup
	// for a URL with no configured response.
	ErrHTTP ErrKind = "http_error"

	// ErrFileNotFound indicates the requested file or executable does not
	// exist.
	ErrFileNotFound ErrKind = "file_not_found"

	// ErrPermission indicates the operating system denied the operation.
	ErrPermission ErrKind = "permission_denied"

	// ErrExec indicates a command could not be started, or a Fake lookup
	// for a command with no configured result.
	ErrExec ErrKind = "exec_error"

	// ErrValidationRejected indicates a Validator denied the call before
	// it reached the inner IO.
	ErrValidationRejected ErrKind = "validation_rejected"

	// ErrReplayMismatch indicates a Replayer detected divergence from the
	// captured log: either the log is exhausted or the incoming call does
	// not match the next recorded one.
	ErrReplayMismatch ErrKind = "replay_mismatch"
)

// OpError is the single structured error type surfaced by every IO
// implementation. It carries enough detail to diagnose a failure without
// re-running the operation.
type OpError struct {
	// Kind classifies the failure.
	Kind ErrKind

	// Op is the capability operation that failed.
	Op OpKind

	// Resource is the URL, path, command, or domain the failure concerns.
	Resource string

	// Message provides additional context.
	Message string

	// Allowed lists the nearest matching rule set for validation
	// rejections.
	Allowed []string

	// Expected and Actual describe the recorded and incoming calls for
	// replay mismatches.
	Expected string
	Actual   string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	parts := []string{fmt.Sprintf("%s: %s", e.Kind, e.Op)}

	if e.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource: %s", e.Resource))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if len(e.Allowed) > 0 {
		parts = append(parts, fmt.Sprintf("allowed: [%s]", strings.Join(e.Allowed, ", ")))
	}
	if e.Expected != "" {
		parts = append(parts, fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual))
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *OpError) Unwrap() error {
	return e.Cause
}

// KindOf returns the classification of err, or the empty kind if err is not
// an *OpError.
func KindOf(err error) ErrKind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ""
}

// IsKind reports whether err is an *OpError of the given kind.
func IsKind(err error, kind ErrKind) bool {
	return KindOf(err) == kind
}
