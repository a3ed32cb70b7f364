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

	"github.com/spf13/cobra"

	"github.com/tombee/capio/pkg/ioctx"
	"github.com/tombee/capio/pkg/recfile"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a recording file for structural problems",
		Long: `Verify checks that a recording file is well-formed: sequence numbers
are strictly increasing from 0, every record names an operation, and each
outcome is either a success or carries a failure description. A recording
that verifies cleanly can be handed to a replayer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recfile.ReadFile(args[0])
			if err != nil {
				return err
			}

			problems := verifyRecording(rec)
			if len(problems) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %d records\n", len(rec.Records))
				return nil
			}

			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), "problem:", p)
			}
			return fmt.Errorf("%d problem(s) found", len(problems))
		},
	}
}

func verifyRecording(rec ioctx.Recording) []string {
	var problems []string

	if rec.ID == "" {
		problems = append(problems, "recording has no id")
	}

	for i, record := range rec.Records {
		if record.Seq != i {
			problems = append(problems, fmt.Sprintf("record %d has seq %d", i, record.Seq))
		}
		if record.Op == "" {
			problems = append(problems, fmt.Sprintf("record %d has no operation kind", i))
		}
		if !record.Outcome.OK && record.Outcome.Err == nil {
			problems = append(problems, fmt.Sprintf("record %d is a failure with no error detail", i))
		}
		if record.Outcome.OK && record.Outcome.Err != nil {
			problems = append(problems, fmt.Sprintf("record %d is a success carrying error detail", i))
		}
	}

	return problems
}
