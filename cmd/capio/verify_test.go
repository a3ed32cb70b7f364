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

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/capio/pkg/ioctx"
)

func cleanRecording() ioctx.Recording {
	return ioctx.Recording{
		ID:        "rec-1",
		CreatedAt: time.Now().UTC(),
		Records: []ioctx.Record{
			{Seq: 0, Op: ioctx.OpHTTPGet, Args: []string{"https://a"},
				Outcome: ioctx.Outcome{OK: true, HTTP: &ioctx.HTTPResponse{StatusCode: 200}}},
			{Seq: 1, Op: ioctx.OpReadFile, Args: []string{"/gone"},
				Outcome: ioctx.Outcome{Err: &ioctx.ErrDetail{Kind: ioctx.ErrFileNotFound}}},
		},
	}
}

func TestVerifyRecordingClean(t *testing.T) {
	assert.Empty(t, verifyRecording(cleanRecording()))
}

func TestVerifyRecordingProblems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ioctx.Recording)
		want   string
	}{
		{
			name:   "missing id",
			mutate: func(r *ioctx.Recording) { r.ID = "" },
			want:   "no id",
		},
		{
			name:   "seq gap",
			mutate: func(r *ioctx.Recording) { r.Records[1].Seq = 5 },
			want:   "has seq 5",
		},
		{
			name:   "missing op",
			mutate: func(r *ioctx.Recording) { r.Records[0].Op = "" },
			want:   "no operation kind",
		},
		{
			name:   "failure without detail",
			mutate: func(r *ioctx.Recording) { r.Records[1].Outcome.Err = nil },
			want:   "no error detail",
		},
		{
			name: "success carrying detail",
			mutate: func(r *ioctx.Recording) {
				r.Records[0].Outcome.Err = &ioctx.ErrDetail{Kind: ioctx.ErrHTTP}
			},
			want: "success carrying error detail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cleanRecording()
			tt.mutate(&rec)
			problems := verifyRecording(rec)
			require.NotEmpty(t, problems)
			assert.Contains(t, problems[0], tt.want)
		})
	}
}
