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
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Record is the immutable description of one capability call and its
// outcome. Records hold only plain data (strings, byte slices, integers) so
// a captured sequence can be handed to any serialization mechanism and
// later reconstructed for replay.
type Record struct {
	// Seq is the position of the record within its trace or recording,
	// strictly increasing from 0.
	Seq int `json:"seq"`

	// Op is the capability operation that was invoked.
	Op OpKind `json:"op"`

	// Args is the ordered snapshot of the call's input values. Byte
	// arguments are base64-encoded; argv slices are stored element-wise.
	Args []string `json:"args"`

	// Outcome is the success value or failure description of the call.
	Outcome Outcome `json:"outcome"`
}

// Matches reports whether the record describes the same call as the given
// operation and argument snapshot. Matching compares Op and Args only,
// never Seq or Outcome.
func (r Record) Matches(op OpKind, args []string) bool {
	if r.Op != op || len(r.Args) != len(args) {
		return false
	}
	for i := range args {
		if r.Args[i] != args[i] {
			return false
		}
	}
	return true
}

// CallString renders the record's call as "op(arg, ...)" for diagnostics.
func (r Record) CallString() string {
	return callString(r.Op, r.Args)
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Args = append([]string(nil), r.Args...)
	out.Outcome = r.Outcome.clone()
	return out
}

func callString(op OpKind, args []string) string {
	return fmt.Sprintf("%s(%s)", op, strings.Join(args, ", "))
}

// byteArg encodes a byte argument for inclusion in a record's argument
// snapshot. Base64 keeps snapshots comparable with exact string equality
// and safe for any serialization format.
func byteArg(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Outcome is the tagged success/failure union of a record. Exactly one of
// the value fields is set on success, according to the operation's result
// shape; Err is set on failure.
type Outcome struct {
	OK bool `json:"ok"`

	// HTTP carries the response for http_get and http_post.
	HTTP *HTTPResponse `json:"http,omitempty"`

	// Data carries the file contents for read_file.
	Data []byte `json:"data,omitempty"`

	// Cmd carries the result for exec_command.
	Cmd *CommandResult `json:"cmd,omitempty"`

	// Err describes the failure when OK is false.
	Err *ErrDetail `json:"err,omitempty"`
}

func (o Outcome) clone() Outcome {
	out := o
	out.HTTP = o.HTTP.Clone()
	out.Cmd = o.Cmd.Clone()
	out.Data = append([]byte(nil), o.Data...)
	if o.Err != nil {
		e := *o.Err
		out.Err = &e
	}
	return out
}

// ErrDetail is the serialization-neutral description of a recorded failure.
// Replay reconstructs an equivalent *OpError from it rather than
// resurrecting the original error value.
type ErrDetail struct {
	Kind    ErrKind `json:"kind"`
	Message string  `json:"message"`
}

// reraise builds a failure equivalent to the recorded one.
func (d *ErrDetail) reraise(op OpKind) error {
	return &OpError{Kind: d.Kind, Op: op, Message: d.Message}
}

// errDetail converts a live error into its recordable description.
func errDetail(err error) *ErrDetail {
	kind := KindOf(err)
	if kind == "" {
		// Non-OpError failures keep their text but lose classification.
		return &ErrDetail{Message: err.Error()}
	}
	return &ErrDetail{Kind: kind, Message: err.Error()}
}

// Outcome builders used by Tracer and Recorder when snapshotting results.
// Values are cloned so records never alias live state.

func httpOutcome(resp *HTTPResponse, err error) Outcome {
	if err != nil {
		return Outcome{Err: errDetail(err)}
	}
	return Outcome{OK: true, HTTP: resp.Clone()}
}

func dataOutcome(data []byte, err error) Outcome {
	if err != nil {
		return Outcome{Err: errDetail(err)}
	}
	return Outcome{OK: true, Data: append([]byte(nil), data...)}
}

func cmdOutcome(res *CommandResult, err error) Outcome {
	if err != nil {
		return Outcome{Err: errDetail(err)}
	}
	return Outcome{OK: true, Cmd: res.Clone()}
}

func unitOutcome(err error) Outcome {
	if err != nil {
		return Outcome{Err: errDetail(err)}
	}
	return Outcome{OK: true}
}

// Recording is an immutable snapshot of an ordered operation log, produced
// by Recorder.Recording. It contains only plain data and is safe to hand to
// an external serialization mechanism.
type Recording struct {
	// ID uniquely identifies the Recorder that produced the snapshot.
	ID string `json:"id"`

	// CreatedAt is when the Recorder was constructed.
	CreatedAt time.Time `json:"created_at"`

	// Records is the captured operation sequence in call order.
	Records []Record `json:"records"`
}

// Clone returns a deep copy of the recording.
func (rec Recording) Clone() Recording {
	out := rec
	out.Records = cloneRecords(rec.Records)
	return out
}

func cloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
