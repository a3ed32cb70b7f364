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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasuredCountsByStatus(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	measured := NewMeasured(NewFake(testFakeConfig()), reg)

	_, _ = measured.HTTPGet(ctx, "https://api.example.com/v1")
	_, _ = measured.HTTPGet(ctx, "https://api.example.com/v1")
	_, err := measured.HTTPGet(ctx, "https://unmapped.example.com")
	require.Error(t, err)
	_, err = measured.ReadFile(ctx, "/nope")
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(measured.ops.WithLabelValues("http_get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(measured.ops.WithLabelValues("http_get", "http_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(measured.ops.WithLabelValues("read_file", "file_not_found")))
}

func TestMeasuredObservesDurations(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	measured := NewMeasured(NewFake(testFakeConfig()), reg)

	_, _ = measured.ReadFile(ctx, "/data/input.txt")
	_ = measured.WriteFile(ctx, "/data/out.txt", []byte("x"))
	_ = measured.Log(ctx, "info", "x")

	count, err := testutil.GatherAndCount(reg,
		"capio_operations_total", "capio_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 6, count, "one counter series and one histogram series per op kind")
}

func TestMeasuredPropagatesResults(t *testing.T) {
	ctx := context.Background()
	measured := NewMeasured(NewFake(testFakeConfig()), prometheus.NewRegistry())

	resp, err := measured.HTTPGet(ctx, "https://api.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	_, err = measured.ExecCommand(ctx, []string{"git", "push"})
	assert.True(t, IsKind(err, ErrExec), "failures propagate unchanged")
}
