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

// Package ioctx abstracts side-effecting operations (HTTP requests, file
// access, command execution, logging) behind a single capability interface
// so that application code performs IO only through an injected IO value
// rather than calling global primitives directly.
//
// The package provides two terminal implementations and a family of
// composable decorators:
//
//   - Real performs genuine IO against the OS and network.
//   - Fake returns canned responses from lookup tables, performing no IO.
//   - Tracer forwards to an inner IO and keeps an in-memory trace of
//     every call for live inspection.
//   - Validator enforces an immutable domain/path policy, rejecting
//     disallowed calls before they reach the inner IO.
//   - Recorder captures an ordered, serializable log of operations.
//   - Replayer reproduces a previously captured log deterministically,
//     failing loudly on any divergence.
//   - Retrier, RateLimited, Measured, and Spans add retry, admission
//     control, Prometheus metrics, and OpenTelemetry spans around an
//     inner IO.
//
// Decorators wrap exactly one inner IO and may be stacked in any order:
//
//	fake := ioctx.NewFake(ioctx.FakeConfig{
//	    HTTPResponses: map[string]ioctx.HTTPResponse{
//	        "https://api.example.com/v1": {StatusCode: 200, Text: "ok"},
//	    },
//	})
//	rec := ioctx.NewRecorder(ioctx.NewValidator(fake, ioctx.Policy{
//	    AllowedDomains: []string{"*.example.com"},
//	}))
//
//	resp, err := rec.HTTPGet(ctx, "https://api.example.com/v1")
//
// There is deliberately no package-level default IO: every call site
// receives its IO explicitly. Ambient or process-global contexts defeat
// the substitutability the package exists to provide.
package ioctx
