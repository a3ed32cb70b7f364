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
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Policy is the immutable rule set a Validator enforces.
//
// Domain rules support exact hostnames and "*." wildcard patterns
// ("*.example.com" matches any subdomain). Path rules use prefix semantics
// after normalization. An empty AllowedDomains list allows all domains not
// explicitly blocked; an empty AllowedPaths list denies all file access,
// since a path policy with no entries grants nothing.
type Policy struct {
	// AllowedDomains lists hostnames permitted for HTTP operations.
	AllowedDomains []string

	// BlockedDomains lists hostnames denied regardless of AllowedDomains.
	// Checked first.
	BlockedDomains []string

	// AllowedPaths lists filesystem path prefixes permitted for read and
	// write operations.
	AllowedPaths []string
}

func (p Policy) clone() Policy {
	return Policy{
		AllowedDomains: append([]string(nil), p.AllowedDomains...),
		BlockedDomains: append([]string(nil), p.BlockedDomains...),
		AllowedPaths:   append([]string(nil), p.AllowedPaths...),
	}
}

// checkDomain validates the URL's hostname against the domain rules.
func (p Policy) checkDomain(op OpKind, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return &OpError{
			Kind:     ErrValidationRejected,
			Op:       op,
			Resource: rawURL,
			Message:  "url has no parseable host",
			Cause:    err,
		}
	}
	host := parsed.Hostname()

	// Blocked list takes precedence.
	for _, pattern := range p.BlockedDomains {
		if matchesDomainPattern(host, pattern) {
			return &OpError{
				Kind:     ErrValidationRejected,
				Op:       op,
				Resource: host,
				Allowed:  p.BlockedDomains,
				Message:  "domain is in blocked list",
			}
		}
	}

	if len(p.AllowedDomains) == 0 {
		return nil
	}

	for _, pattern := range p.AllowedDomains {
		if matchesDomainPattern(host, pattern) {
			return nil
		}
	}

	return &OpError{
		Kind:     ErrValidationRejected,
		Op:       op,
		Resource: host,
		Allowed:  p.AllowedDomains,
		Message:  "domain not in allowed list",
	}
}

// checkPath validates the path against the allowed prefixes.
func (p Policy) checkPath(op OpKind, path string) error {
	normalized := normalizePath(path)
	for _, prefix := range p.AllowedPaths {
		if strings.HasPrefix(normalized, normalizePath(prefix)) {
			return nil
		}
	}

	return &OpError{
		Kind:     ErrValidationRejected,
		Op:       op,
		Resource: path,
		Allowed:  p.AllowedPaths,
		Message:  "path not under any allowed prefix",
	}
}

// matchesDomainPattern checks a hostname against an exact or wildcard
// pattern. "*" is expanded to a doublestar glob so "*.example.com" matches
// nested subdomains too.
func matchesDomainPattern(hostname, pattern string) bool {
	if strings.Contains(pattern, "*") {
		globPattern := strings.ReplaceAll(pattern, "*", "**")
		matched, err := doublestar.Match(globPattern, hostname)
		return err == nil && matched
	}
	return hostname == pattern
}

// normalizePath converts backslashes to forward slashes and strips a
// leading "./" so prefix matching behaves the same across platforms.
func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "./")
}

// Validator wraps exactly one inner IO and checks each call against an
// immutable Policy before forwarding. Rejected calls fail with
// ErrValidationRejected and are never forwarded: the inner IO observes
// nothing for them. Log is never subject to policy. Accepted calls are
// forwarded unchanged and their results propagated verbatim.
type Validator struct {
	inner  IO
	policy Policy
}

// NewValidator creates a Validator enforcing policy over inner. The policy
// is copied; later mutation of the caller's slices has no effect.
func NewValidator(inner IO, policy Policy) *Validator {
	return &Validator{inner: inner, policy: policy.clone()}
}

// HTTPGet implements IO.
func (v *Validator) HTTPGet(ctx context.Context, url string) (*HTTPResponse, error) {
	if err := v.policy.checkDomain(OpHTTPGet, url); err != nil {
		return nil, err
	}
	return v.inner.HTTPGet(ctx, url)
}

// HTTPPost implements IO.
func (v *Validator) HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error) {
	if err := v.policy.checkDomain(OpHTTPPost, url); err != nil {
		return nil, err
	}
	return v.inner.HTTPPost(ctx, url, body)
}

// ReadFile implements IO.
func (v *Validator) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := v.policy.checkPath(OpReadFile, path); err != nil {
		return nil, err
	}
	return v.inner.ReadFile(ctx, path)
}

// WriteFile implements IO.
func (v *Validator) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := v.policy.checkPath(OpWriteFile, path); err != nil {
		return err
	}
	return v.inner.WriteFile(ctx, path, data)
}

// ExecCommand implements IO. Command execution is not subject to the
// domain/path policy and is always forwarded.
func (v *Validator) ExecCommand(ctx context.Context, argv []string) (*CommandResult, error) {
	return v.inner.ExecCommand(ctx, argv)
}

// Log implements IO. Log is exempt from policy and always forwarded.
func (v *Validator) Log(ctx context.Context, level, message string) error {
	return v.inner.Log(ctx, level, message)
}
