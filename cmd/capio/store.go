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

	"github.com/tombee/capio/internal/recstore"
	"github.com/tombee/capio/pkg/recfile"
)

func newStoreCmd() *cobra.Command {
	var dbPath string

	store := &cobra.Command{
		Use:   "store",
		Short: "Manage the durable recording store",
	}
	store.PersistentFlags().StringVar(&dbPath, "db", "capio.db", "path to the recording database")

	openStore := func() (*recstore.Store, error) {
		return recstore.New(recstore.Config{Path: dbPath})
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a recording file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recfile.ReadFile(args[0])
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Save(cmd.Context(), rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d records)\n", rec.ID, len(rec.Records))
			return nil
		},
	}

	var outPath string
	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored recording to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			path := outPath
			if path == "" {
				path = rec.ID + ".json"
			}
			if err := recfile.WriteFile(path, rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", rec.ID, path)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: <id>.json)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			summaries, err := s.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tRECORDS")
			for _, sum := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\n", sum.ID, sum.CreatedAt.Format(time.RFC3339), sum.RecordCount)
			}
			return w.Flush()
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	store.AddCommand(importCmd, exportCmd, listCmd, deleteCmd)
	return store
}
