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
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/capio/pkg/recfile"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print a summary of a recording file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recfile.ReadFile(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recording %s\n", rec.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Created   %s\n", rec.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(cmd.OutOrStdout(), "Records   %d\n\n", len(rec.Records))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tOUTCOME\tCALL")
			for _, record := range rec.Records {
				outcome := "ok"
				if !record.Outcome.OK {
					outcome = "error"
					if record.Outcome.Err != nil && record.Outcome.Err.Kind != "" {
						outcome = string(record.Outcome.Err.Kind)
					}
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", record.Seq, outcome, truncate(record.CallString(), 80))
			}
			return w.Flush()
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
