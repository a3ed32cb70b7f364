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

// Package httpclient provides the HTTP client factory used by the real IO
// implementation.
//
// The factory produces clients with:
//   - TLS 1.2 minimum, TLS 1.3 preferred
//   - Connection pooling with sensible defaults
//   - Request logging with sanitized URLs (sensitive params redacted)
//   - User-Agent header injection
//
// The factory deliberately performs no retries: retry policy belongs to the
// ioctx.Retrier decorator so that the terminal implementation stays a
// single-attempt primitive.
package httpclient
