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

// Package config declares the YAML stack descriptor that assembles an
// ioctx decorator chain from configuration rather than code.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/capio/pkg/ioctx"
	"github.com/tombee/capio/pkg/recfile"
)

// Config describes one IO stack: a terminal implementation plus optional
// decorators, outermost behavior listed last in Build's wrapping order.
type Config struct {
	Terminal  Terminal   `yaml:"terminal"`
	Policy    *Policy    `yaml:"policy,omitempty"`
	Retry     *Retry     `yaml:"retry,omitempty"`
	RateLimit *RateLimit `yaml:"rate_limit,omitempty"`

	// Trace wraps the stack in a Tracer for live inspection.
	Trace bool `yaml:"trace,omitempty"`

	// Record wraps the stack in a Recorder for durable capture.
	Record bool `yaml:"record,omitempty"`
}

// Terminal selects and seeds the terminal implementation.
type Terminal struct {
	// Kind is one of "real", "fake", or "replay".
	Kind string `yaml:"kind"`

	// Fake seeds the fake terminal. Only meaningful when Kind is "fake".
	Fake *FakeSeed `yaml:"fake,omitempty"`

	// ReplayFile is the recording file backing a replay terminal. Only
	// meaningful when Kind is "replay".
	ReplayFile string `yaml:"replay_file,omitempty"`
}

// FakeSeed holds canned data for a fake terminal.
type FakeSeed struct {
	Files     map[string]string       `yaml:"files,omitempty"`
	Responses map[string]ResponseSeed `yaml:"responses,omitempty"`
	Commands  map[string]CommandSeed  `yaml:"commands,omitempty"`
}

// ResponseSeed is one canned HTTP response.
type ResponseSeed struct {
	Status int    `yaml:"status"`
	Text   string `yaml:"text"`
}

// CommandSeed is one canned command result.
type CommandSeed struct {
	ExitCode int    `yaml:"exit_code"`
	Stdout   string `yaml:"stdout"`
	Stderr   string `yaml:"stderr"`
}

// Policy mirrors ioctx.Policy in YAML form.
type Policy struct {
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`
	BlockedDomains []string `yaml:"blocked_domains,omitempty"`
	AllowedPaths   []string `yaml:"allowed_paths,omitempty"`
}

// Retry configures the retrier decorator.
type Retry struct {
	MaxAttempts      int     `yaml:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms"`
	BackoffFactor    float64 `yaml:"backoff_factor"`
}

// RateLimit configures the admission-control decorator.
type RateLimit struct {
	OpsPerSecond float64 `yaml:"ops_per_second"`
	Burst        int     `yaml:"burst"`
}

// Load reads and parses a stack descriptor from the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a stack descriptor from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the descriptor for structural problems.
func (c *Config) Validate() error {
	switch c.Terminal.Kind {
	case "real":
	case "fake":
	case "replay":
		if c.Terminal.ReplayFile == "" {
			return fmt.Errorf("terminal.replay_file is required for a replay terminal")
		}
	case "":
		return fmt.Errorf("terminal.kind is required")
	default:
		return fmt.Errorf("unknown terminal.kind %q (want real, fake, or replay)", c.Terminal.Kind)
	}

	if c.RateLimit != nil && c.RateLimit.OpsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.ops_per_second must be > 0, got %v", c.RateLimit.OpsPerSecond)
	}

	return nil
}

// Stack is an assembled decorator chain. Tracer and Recorder are non-nil
// only when the descriptor enabled them, so callers can reach the trace or
// recording behind the IO value.
type Stack struct {
	IO       ioctx.IO
	Tracer   *ioctx.Tracer
	Recorder *ioctx.Recorder
}

// Build assembles the stack described by the config. Wrapping order, inside
// out: terminal, retrier, rate limit, validator, recorder, tracer - so the
// recorder captures exactly the calls the application made and the
// validator rejects before any retry or capture happens below it.
func (c *Config) Build() (*Stack, error) {
	io, err := c.buildTerminal()
	if err != nil {
		return nil, err
	}

	if c.Retry != nil {
		retryCfg := &ioctx.RetryConfig{
			MaxAttempts:    c.Retry.MaxAttempts,
			InitialBackoff: time.Duration(c.Retry.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(c.Retry.MaxBackoffMs) * time.Millisecond,
			BackoffFactor:  c.Retry.BackoffFactor,
			RetryableKinds: []ioctx.ErrKind{ioctx.ErrHTTP},
		}
		retrier, err := ioctx.NewRetrier(io, retryCfg)
		if err != nil {
			return nil, fmt.Errorf("building retrier: %w", err)
		}
		io = retrier
	}

	if c.RateLimit != nil {
		io = ioctx.NewRateLimited(io, c.RateLimit.OpsPerSecond, c.RateLimit.Burst)
	}

	if c.Policy != nil {
		io = ioctx.NewValidator(io, ioctx.Policy{
			AllowedDomains: c.Policy.AllowedDomains,
			BlockedDomains: c.Policy.BlockedDomains,
			AllowedPaths:   c.Policy.AllowedPaths,
		})
	}

	stack := &Stack{}

	if c.Record {
		stack.Recorder = ioctx.NewRecorder(io)
		io = stack.Recorder
	}

	if c.Trace {
		stack.Tracer = ioctx.NewTracer(io)
		io = stack.Tracer
	}

	stack.IO = io
	return stack, nil
}

func (c *Config) buildTerminal() (ioctx.IO, error) {
	switch c.Terminal.Kind {
	case "real":
		return ioctx.NewReal(), nil

	case "fake":
		seed := c.Terminal.Fake
		if seed == nil {
			seed = &FakeSeed{}
		}
		fakeCfg := ioctx.FakeConfig{
			FileContents:   make(map[string][]byte, len(seed.Files)),
			HTTPResponses:  make(map[string]ioctx.HTTPResponse, len(seed.Responses)),
			CommandResults: make(map[string]ioctx.CommandResult, len(seed.Commands)),
		}
		for path, contents := range seed.Files {
			fakeCfg.FileContents[path] = []byte(contents)
		}
		for url, resp := range seed.Responses {
			fakeCfg.HTTPResponses[url] = ioctx.HTTPResponse{StatusCode: resp.Status, Text: resp.Text}
		}
		for cmd, res := range seed.Commands {
			fakeCfg.CommandResults[cmd] = ioctx.CommandResult{
				ExitCode: res.ExitCode,
				Stdout:   res.Stdout,
				Stderr:   res.Stderr,
			}
		}
		return ioctx.NewFake(fakeCfg), nil

	case "replay":
		rec, err := recfile.ReadFile(c.Terminal.ReplayFile)
		if err != nil {
			return nil, fmt.Errorf("loading replay log: %w", err)
		}
		return ioctx.NewReplayer(rec.Records), nil

	default:
		return nil, fmt.Errorf("unknown terminal kind %q", c.Terminal.Kind)
	}
}
