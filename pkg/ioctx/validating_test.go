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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorDomains(t *testing.T) {
	tests := []struct {
		name       string
		policy     Policy
		url        string
		wantReject bool
	}{
		{
			name:   "exact domain allowed",
			policy: Policy{AllowedDomains: []string{"api.example.com"}},
			url:    "https://api.example.com/v1",
		},
		{
			name:   "wildcard matches subdomain",
			policy: Policy{AllowedDomains: []string{"*.example.com"}},
			url:    "https://api.example.com/v1",
		},
		{
			name:   "wildcard matches nested subdomain",
			policy: Policy{AllowedDomains: []string{"*.example.com"}},
			url:    "https://foo.bar.example.com/v1",
		},
		{
			name:       "domain not in allowed list",
			policy:     Policy{AllowedDomains: []string{"api.example.com"}},
			url:        "https://evil.com/x",
			wantReject: true,
		},
		{
			name:   "empty allowed list allows all",
			policy: Policy{},
			url:    "https://anything.example.org/",
		},
		{
			name: "blocked list takes precedence",
			policy: Policy{
				AllowedDomains: []string{"*"},
				BlockedDomains: []string{"internal.example.com"},
			},
			url:        "https://internal.example.com/admin",
			wantReject: true,
		},
		{
			name:       "unparseable url rejected",
			policy:     Policy{AllowedDomains: []string{"api.example.com"}},
			url:        "not a url",
			wantReject: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := NewFake(FakeConfig{HTTPResponses: map[string]HTTPResponse{
				tt.url: {StatusCode: 200, Text: "ok"},
			}})
			v := NewValidator(fake, tt.policy)

			_, err := v.HTTPGet(context.Background(), tt.url)
			if tt.wantReject {
				require.Error(t, err)
				assert.True(t, IsKind(err, ErrValidationRejected))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidatorPaths(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		path       string
		wantReject bool
	}{
		{
			name:    "path under allowed prefix",
			allowed: []string{"/data/"},
			path:    "/data/input.txt",
		},
		{
			name:    "normalized relative path matches",
			allowed: []string{"data/"},
			path:    "./data/input.txt",
		},
		{
			name:       "path outside prefix",
			allowed:    []string{"/data/"},
			path:       "/etc/passwd",
			wantReject: true,
		},
		{
			name:       "empty allowed list denies all",
			allowed:    nil,
			path:       "/data/input.txt",
			wantReject: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := NewFake(FakeConfig{FileContents: map[string][]byte{tt.path: []byte("x")}})
			v := NewValidator(fake, Policy{AllowedPaths: tt.allowed})

			_, err := v.ReadFile(context.Background(), tt.path)
			if tt.wantReject {
				require.Error(t, err)
				assert.True(t, IsKind(err, ErrValidationRejected))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// A rejected call must never reach the inner context: tracing the inner
// fake shows an empty trace after a rejection.
func TestValidatorNeverForwardsRejectedCalls(t *testing.T) {
	ctx := context.Background()
	inner := NewTracer(NewFake(testFakeConfig()))
	v := NewValidator(inner, Policy{AllowedDomains: []string{"api.example.com"}})

	_, err := v.HTTPGet(ctx, "https://evil.com/x")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrValidationRejected))
	assert.Empty(t, inner.Trace(), "inner context must observe nothing for a rejected call")

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "evil.com", opErr.Resource)
	assert.Equal(t, []string{"api.example.com"}, opErr.Allowed)
}

func TestValidatorRejectionDetail(t *testing.T) {
	v := NewValidator(NewFake(FakeConfig{}), Policy{AllowedPaths: []string{"/data/"}})

	err := v.WriteFile(context.Background(), "/etc/hosts", []byte("x"))
	require.Error(t, err)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, ErrValidationRejected, opErr.Kind)
	assert.Equal(t, OpWriteFile, opErr.Op)
	assert.Equal(t, "/etc/hosts", opErr.Resource)
	assert.Equal(t, []string{"/data/"}, opErr.Allowed)
}

func TestValidatorLogExempt(t *testing.T) {
	ctx := context.Background()
	inner := NewTracer(NewFake(FakeConfig{}))
	// A policy that rejects everything else still forwards log calls.
	v := NewValidator(inner, Policy{AllowedDomains: []string{"none.invalid"}})

	require.NoError(t, v.Log(ctx, "info", "still flows"))
	require.Len(t, inner.Trace(), 1)
}

func TestValidatorForwardsAcceptedVerbatim(t *testing.T) {
	ctx := context.Background()
	v := NewValidator(NewFake(testFakeConfig()), Policy{
		AllowedDomains: []string{"api.example.com"},
		AllowedPaths:   []string{"/data/"},
	})

	resp, err := v.HTTPGet(ctx, "https://api.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Inner failures pass through unchanged.
	_, err = v.ReadFile(ctx, "/data/absent.txt")
	assert.True(t, IsKind(err, ErrFileNotFound))
}

func TestValidatorPolicyImmutable(t *testing.T) {
	allowed := []string{"api.example.com"}
	v := NewValidator(NewFake(testFakeConfig()), Policy{AllowedDomains: allowed})

	// Mutating the caller's slice after construction has no effect.
	allowed[0] = "evil.com"

	_, err := v.HTTPGet(context.Background(), "https://api.example.com/v1")
	require.NoError(t, err)
	_, err = v.HTTPGet(context.Background(), "https://evil.com/x")
	assert.True(t, IsKind(err, ErrValidationRejected))
}
