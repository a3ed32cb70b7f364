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

func TestReplayerReproducesOutcomes(t *testing.T) {
	ctx := context.Background()
	records := []Record{
		{Seq: 0, Op: OpHTTPGet, Args: []string{"https://api.example.com/v1"},
			Outcome: Outcome{OK: true, HTTP: &HTTPResponse{StatusCode: 201, Text: "created"}}},
		{Seq: 1, Op: OpReadFile, Args: []string{"/data/input.txt"},
			Outcome: Outcome{OK: true, Data: []byte("hello")}},
		{Seq: 2, Op: OpExecCommand, Args: []string{"ls", "-l"},
			Outcome: Outcome{OK: true, Cmd: &CommandResult{ExitCode: 2, Stderr: "boom"}}},
	}
	replayer := NewReplayer(records)

	resp, err := replayer.HTTPGet(ctx, "https://api.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "created", resp.Text)

	data, err := replayer.ReadFile(ctx, "/data/input.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	res, err := replayer.ExecCommand(ctx, []string{"ls", "-l"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "boom", res.Stderr)

	assert.True(t, replayer.Exhausted())
}

func TestReplayerReproducesFailures(t *testing.T) {
	records := []Record{
		{Seq: 0, Op: OpReadFile, Args: []string{"/gone"},
			Outcome: Outcome{Err: &ErrDetail{Kind: ErrFileNotFound, Message: "read_file /gone: no such file"}}},
	}
	replayer := NewReplayer(records)

	_, err := replayer.ReadFile(context.Background(), "/gone")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrFileNotFound))

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpReadFile, opErr.Op)
}

// A call with the right arguments but the wrong operation kind is a
// mismatch. The cursor still advances, so the log cannot be retried.
func TestReplayerMismatchWrongOp(t *testing.T) {
	ctx := context.Background()
	records := []Record{
		{Seq: 0, Op: OpHTTPGet, Args: []string{"https://api.example.com/v1"},
			Outcome: Outcome{OK: true, HTTP: &HTTPResponse{StatusCode: 200}}},
	}
	replayer := NewReplayer(records)

	err := replayer.WriteFile(ctx, "https://api.example.com/v1", nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrReplayMismatch))

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Contains(t, opErr.Expected, "http_get")
	assert.Contains(t, opErr.Actual, "write_file")

	assert.Equal(t, 1, replayer.Position())
	assert.True(t, replayer.Exhausted())
}

func TestReplayerMismatchWrongArgs(t *testing.T) {
	records := []Record{
		{Seq: 0, Op: OpHTTPGet, Args: []string{"https://api.example.com/v1"},
			Outcome: Outcome{OK: true, HTTP: &HTTPResponse{StatusCode: 200}}},
	}
	replayer := NewReplayer(records)

	_, err := replayer.HTTPGet(context.Background(), "https://api.example.com/v2")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrReplayMismatch))
}

func TestReplayerExhaustion(t *testing.T) {
	ctx := context.Background()
	records := []Record{
		{Seq: 0, Op: OpLog, Args: []string{"info", "only entry"}, Outcome: Outcome{OK: true}},
	}
	replayer := NewReplayer(records)

	require.NoError(t, replayer.Log(ctx, "info", "only entry"))
	require.True(t, replayer.Exhausted())

	err := replayer.Log(ctx, "info", "one too many")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrReplayMismatch))

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "log exhausted", opErr.Message)

	// Exhaustion does not advance the cursor.
	assert.Equal(t, 1, replayer.Position())
}

func TestReplayerEmptyLog(t *testing.T) {
	replayer := NewReplayer(nil)
	assert.True(t, replayer.Exhausted())

	_, err := replayer.HTTPGet(context.Background(), "https://api.example.com/v1")
	assert.True(t, IsKind(err, ErrReplayMismatch))
}

func TestReplayerByteArgsMatchExactly(t *testing.T) {
	ctx := context.Background()
	records := []Record{
		{Seq: 0, Op: OpWriteFile, Args: []string{"/data/out.txt", byteArg([]byte("payload"))},
			Outcome: Outcome{OK: true}},
	}

	replayer := NewReplayer(records)
	require.NoError(t, replayer.WriteFile(ctx, "/data/out.txt", []byte("payload")))

	replayer = NewReplayer(records)
	err := replayer.WriteFile(ctx, "/data/out.txt", []byte("different"))
	assert.True(t, IsKind(err, ErrReplayMismatch))
}

// Replayed values are copies: mutating a returned response must not affect
// what a later identical replay would see.
func TestReplayerReturnsCopies(t *testing.T) {
	ctx := context.Background()
	source := []Record{
		{Seq: 0, Op: OpReadFile, Args: []string{"/a"}, Outcome: Outcome{OK: true, Data: []byte("abc")}},
	}
	replayer := NewReplayer(source)

	data, err := replayer.ReadFile(ctx, "/a")
	require.NoError(t, err)
	data[0] = 'X'

	again := NewReplayer(source)
	data2, err := again.ReadFile(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data2)
}
