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

// Package recfile serializes ioctx recordings to and from JSON.
//
// The ioctx core is serialization-agnostic: Recording values contain only
// plain data. This package is the bundled collaborator that moves them
// across a durable boundary. Files carry a versioned envelope so the format
// can evolve without breaking old captures.
package recfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tombee/capio/pkg/ioctx"
)

// Format is the envelope format tag written to every file.
const Format = "capio.recording"

// Version is the current envelope version.
const Version = 1

// Envelope wraps a recording with format identification.
type Envelope struct {
	Format    string         `json:"format"`
	Version   int            `json:"version"`
	Recording ioctx.Recording `json:"recording"`
}

// Encode writes the recording to w as indented JSON.
func Encode(w io.Writer, rec ioctx.Recording) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Envelope{Format: Format, Version: Version, Recording: rec}); err != nil {
		return fmt.Errorf("encoding recording %s: %w", rec.ID, err)
	}
	return nil
}

// Decode reads a recording envelope from r, validating the format tag and
// version.
func Decode(r io.Reader) (ioctx.Recording, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return ioctx.Recording{}, fmt.Errorf("decoding recording: %w", err)
	}
	if env.Format != Format {
		return ioctx.Recording{}, fmt.Errorf("unexpected format %q, want %q", env.Format, Format)
	}
	if env.Version != Version {
		return ioctx.Recording{}, fmt.Errorf("unsupported version %d, want %d", env.Version, Version)
	}
	return env.Recording, nil
}

// WriteFile serializes the recording to the file at path.
func WriteFile(path string, rec ioctx.Recording) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, rec); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile deserializes a recording from the file at path.
func ReadFile(path string) (ioctx.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return ioctx.Recording{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}
