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
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	caplog "github.com/tombee/capio/internal/log"
)

// tracerProvider is set when --trace is enabled so commands can flush spans
// on exit.
var tracerProvider *sdktrace.TracerProvider

func newRootCmd() *cobra.Command {
	var enableTrace bool

	root := &cobra.Command{
		Use:           "capio",
		Short:         "Inspect, verify, store, and replay capio recordings",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(caplog.New(caplog.FromEnv()))

			if enableTrace {
				exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
				if err != nil {
					return fmt.Errorf("creating trace exporter: %w", err)
				}
				tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
				otel.SetTracerProvider(tracerProvider)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if tracerProvider != nil {
				return tracerProvider.Shutdown(context.Background())
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&enableTrace, "trace", false,
		"emit OpenTelemetry spans for replayed operations to stdout")

	root.AddCommand(newInspectCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newStoreCmd())

	return root
}
