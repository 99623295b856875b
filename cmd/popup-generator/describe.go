// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/popup-generator/internal/records"
)

var describeCmd = &cobra.Command{
	Use:   "describe NAME",
	Short: "Print the popup description composed for one location title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := records.Load(cfg.Records.Path)
		if err != nil {
			return err
		}
		desc, found := records.Describe(recs, args[0])
		if !found {
			return fmt.Errorf("%w for %q", records.ErrNoMatch, args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), desc)
		return nil
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect the records file",
}

var recordsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the records file and report unnamed entries and duplicate names",
	Long: `Check decodes the records file the same way a run does. Entries without a
string name never match a location. When several records share a name
only the first one is used; check lists those names so the data can be
cleaned up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := records.Load(cfg.Records.Path)
		if err != nil {
			return err
		}

		unnamed := 0
		for _, r := range recs {
			if r.Unnamed {
				unnamed++
			}
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "records: %d, unnamed: %d\n", len(recs), unnamed)

		dups := records.Duplicates(recs)
		names := make([]string, 0, len(dups))
		for name := range dups {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "duplicate %q x%d (first record wins)\n", name, dups[name])
		}
		return nil
	},
}

func init() {
	recordsCmd.AddCommand(recordsCheckCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(recordsCmd)
}
