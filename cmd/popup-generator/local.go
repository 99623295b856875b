// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/pdiddy/popup-generator/internal/fields"
	"github.com/pdiddy/popup-generator/internal/localdb"
	"github.com/pdiddy/popup-generator/pkg/types"
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Manage the local SQLite host mirror",
	Long: `Local manages the SQLite mirror used by run --host local: import
location fixtures, inspect popup fields and categories, and export the
mirror to YAML.`,
}

var localImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import taxonomies and locations from a YAML fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		sum, err := store.ImportFile(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d taxonomies, %d locations\n", sum.Taxonomies, sum.Locations)
		return nil
	},
}

var localShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List mirrored locations with their popup body and category",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openLocal(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		q := types.LocationQuery{PostType: cfg.Locations.PostType, Status: cfg.Locations.Status}

		if path, _ := cmd.Flags().GetString("export"); path != "" {
			if err := store.ExportYAML(ctx, path, q, cfg.Category.Taxonomy); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		}

		snaps, err := store.Snapshots(ctx, q, cfg.Category.Taxonomy)
		if err != nil {
			return err
		}
		printSnapshots(cmd, snaps)
		return nil
	},
}

func printSnapshots(cmd *cobra.Command, snaps []localdb.Snapshot) {
	w := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No locations found.")
		return
	}

	table := cfg.Popup.Fields
	if len(table) == 0 {
		table = fields.DefaultTable()
	}
	bodyKey, _ := fields.Find(table, types.RoleBody)

	fmt.Fprintf(w, "%-6s  %-30s  %-40s  %s\n", "ID", "Title", "Body", "Category")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, s := range snaps {
		body := strings.ReplaceAll(findValue(s.Fields, bodyKey), "\n", " / ")
		body = truncate(body, 40)
		title := s.Location.Title
		title = truncate(title, 30)
		var slugs []string
		for _, t := range s.Terms {
			slugs = append(slugs, t.Slug)
		}
		fmt.Fprintf(w, "%-6d  %-30s  %-40s  %s\n", s.Location.ID, title, body, strings.Join(slugs, ","))
	}
	fmt.Fprintf(w, "\n%d locations\n", len(snaps))
}

// findValue returns the string stored under key at any nesting depth.
func findValue(values types.FieldValues, key string) string {
	for k, v := range values {
		if k == key {
			s, _ := v.(string)
			return s
		}
		if nested, ok := v.(types.FieldValues); ok {
			if s := findValue(nested, key); s != "" {
				return s
			}
		}
	}
	return ""
}

func openLocal(cmd *cobra.Command) (*localdb.Store, error) {
	localCfg := cfg.Local
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		localCfg.DBPath = db
	}
	return localdb.NewStore(localCfg)
}

func init() {
	localCmd.PersistentFlags().String("db", "", "SQLite mirror path (default data/popup.db)")
	localShowCmd.Flags().String("export", "", "write the mirror to a YAML file instead of printing")

	localCmd.AddCommand(localImportCmd)
	localCmd.AddCommand(localShowCmd)
	rootCmd.AddCommand(localCmd)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
