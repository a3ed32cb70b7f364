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
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/capio/internal/config"
	"github.com/tombee/capio/pkg/ioctx"
	"github.com/tombee/capio/pkg/recfile"
)

func newReplayCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Re-execute a recorded call sequence against a configured stack",
		Long: `Replay loads a recording and issues its call sequence, in order,
against an IO stack built from --config. Without a config the calls run
against a replayer over the recording itself, which confirms the file
replays cleanly end to end. Each call's outcome is compared with the
recorded one and divergences are reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recfile.ReadFile(args[0])
			if err != nil {
				return err
			}

			var target ioctx.IO
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				stack, err := cfg.Build()
				if err != nil {
					return err
				}
				target = stack.IO
			} else {
				target = ioctx.NewReplayer(rec.Records)
			}

			if tracerProvider != nil {
				target = ioctx.NewSpans(target, tracerProvider)
			}

			divergences := 0
			for _, record := range rec.Records {
				diff, err := reissue(cmd.Context(), target, record)
				if err != nil {
					return fmt.Errorf("record %d: %w", record.Seq, err)
				}
				if diff != "" {
					divergences++
					fmt.Fprintf(cmd.OutOrStdout(), "diverged at %d %s: %s\n",
						record.Seq, record.CallString(), diff)
				}
			}

			if divergences > 0 {
				return fmt.Errorf("%d of %d calls diverged", divergences, len(rec.Records))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d calls matched\n", len(rec.Records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"stack descriptor to replay against (default: the recording itself)")

	return cmd
}

// reissue performs the recorded call against target and describes how the
// live outcome diverges from the recorded one. An empty string means the
// outcomes agree.
func reissue(ctx context.Context, target ioctx.IO, record ioctx.Record) (string, error) {
	switch record.Op {
	case ioctx.OpHTTPGet:
		if len(record.Args) != 1 {
			return "", fmt.Errorf("malformed args for %s", record.Op)
		}
		resp, err := target.HTTPGet(ctx, record.Args[0])
		return diffHTTP(record, resp, err), nil

	case ioctx.OpHTTPPost:
		if len(record.Args) != 2 {
			return "", fmt.Errorf("malformed args for %s", record.Op)
		}
		body, err := base64.StdEncoding.DecodeString(record.Args[1])
		if err != nil {
			return "", fmt.Errorf("decoding body arg: %w", err)
		}
		resp, callErr := target.HTTPPost(ctx, record.Args[0], body)
		return diffHTTP(record, resp, callErr), nil

	case ioctx.OpReadFile:
		if len(record.Args) != 1 {
			return "", fmt.Errorf("malformed args for %s", record.Op)
		}
		data, err := target.ReadFile(ctx, record.Args[0])
		if diff := diffErr(record, err); diff != "" {
			return diff, nil
		}
		if record.Outcome.OK && string(data) != string(record.Outcome.Data) {
			return "file contents differ", nil
		}
		return "", nil

	case ioctx.OpWriteFile:
		if len(record.Args) != 2 {
			return "", fmt.Errorf("malformed args for %s", record.Op)
		}
		data, err := base64.StdEncoding.DecodeString(record.Args[1])
		if err != nil {
			return "", fmt.Errorf("decoding data arg: %w", err)
		}
		return diffErr(record, target.WriteFile(ctx, record.Args[0], data)), nil

	case ioctx.OpExecCommand:
		res, err := target.ExecCommand(ctx, record.Args)
		if diff := diffErr(record, err); diff != "" {
			return diff, nil
		}
		if record.Outcome.OK && record.Outcome.Cmd != nil && res.ExitCode != record.Outcome.Cmd.ExitCode {
			return fmt.Sprintf("exit code %d, recorded %d", res.ExitCode, record.Outcome.Cmd.ExitCode), nil
		}
		return "", nil

	case ioctx.OpLog:
		if len(record.Args) != 2 {
			return "", fmt.Errorf("malformed args for %s", record.Op)
		}
		return diffErr(record, target.Log(ctx, record.Args[0], record.Args[1])), nil

	default:
		return "", fmt.Errorf("unknown operation kind %q", record.Op)
	}
}

func diffHTTP(record ioctx.Record, resp *ioctx.HTTPResponse, err error) string {
	if diff := diffErr(record, err); diff != "" {
		return diff
	}
	if !record.Outcome.OK || record.Outcome.HTTP == nil {
		return ""
	}
	if resp.StatusCode != record.Outcome.HTTP.StatusCode {
		return fmt.Sprintf("status %d, recorded %d", resp.StatusCode, record.Outcome.HTTP.StatusCode)
	}
	if resp.Text != record.Outcome.HTTP.Text {
		return "response body differs"
	}
	return ""
}

func diffErr(record ioctx.Record, err error) string {
	switch {
	case err == nil && !record.Outcome.OK:
		return fmt.Sprintf("succeeded, recorded failure %s", record.Outcome.Err.Kind)
	case err != nil && record.Outcome.OK:
		return fmt.Sprintf("failed with %s, recorded success", ioctx.KindOf(err))
	case err != nil && !record.Outcome.OK && ioctx.KindOf(err) != record.Outcome.Err.Kind:
		return fmt.Sprintf("failed with %s, recorded %s", ioctx.KindOf(err), record.Outcome.Err.Kind)
	default:
		return ""
	}
}
