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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Measured wraps exactly one inner IO and exports Prometheus metrics for
// every capability call: a counter by operation and outcome status, and a
// duration histogram by operation. Results and failures are propagated
// unchanged.
type Measured struct {
	inner IO
	ops   *prometheus.CounterVec
	dur   *prometheus.HistogramVec
}

// NewMeasured creates a Measured registering its collectors on reg. A nil
// registerer uses the default registry.
func NewMeasured(inner IO, reg prometheus.Registerer) *Measured {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Measured{
		inner: inner,
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capio_operations_total",
			Help: "Total capability operations by kind and outcome status.",
		}, []string{"op", "status"}),
		dur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capio_operation_duration_seconds",
			Help:    "Capability operation duration in seconds by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

// observe records one completed call. The status label is "ok" for
// successes, the error kind for classified failures, and "error" otherwise.
func (m *Measured) observe(op OpKind, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		if kind := KindOf(err); kind != "" {
			status = string(kind)
		}
	}
	m.ops.WithLabelValues(string(op), status).Inc()
	m.dur.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
}

// HTTPGet implements IO.
func (m *Measured) HTTPGet(ctx context.Context, url string) (*HTTPResponse, error) {
	start := time.Now()
	resp, err := m.inner.HTTPGet(ctx, url)
	m.observe(OpHTTPGet, start, err)
	return resp, err
}

// HTTPPost implements IO.
func (m *Measured) HTTPPost(ctx context.Context, url string, body []byte) (*HTTPResponse, error) {
	start := time.Now()
	resp, err := m.inner.HTTPPost(ctx, url, body)
	m.observe(OpHTTPPost, start, err)
	return resp, err
}

// ReadFile implements IO.
func (m *Measured) ReadFile(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	data, err := m.inner.ReadFile(ctx, path)
	m.observe(OpReadFile, start, err)
	return data, err
}

// WriteFile implements IO.
func (m *Measured) WriteFile(ctx context.Context, path string, data []byte) error {
	start := time.Now()
	err := m.inner.WriteFile(ctx, path, data)
	m.observe(OpWriteFile, start, err)
	return err
}

// ExecCommand implements IO.
func (m *Measured) ExecCommand(ctx context.Context, argv []string) (*CommandResult, error) {
	start := time.Now()
	res, err := m.inner.ExecCommand(ctx, argv)
	m.observe(OpExecCommand, start, err)
	return res, err
}

// Log implements IO.
func (m *Measured) Log(ctx context.Context, level, message string) error {
	start := time.Now()
	err := m.inner.Log(ctx, level, message)
	m.observe(OpLog, start, err)
	return err
}
