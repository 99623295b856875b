// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/popup-generator/internal/fields"
	"github.com/pdiddy/popup-generator/internal/localdb"
	"github.com/pdiddy/popup-generator/internal/popup"
	"github.com/pdiddy/popup-generator/internal/report"
	"github.com/pdiddy/popup-generator/internal/wordpress"
	"github.com/pdiddy/popup-generator/pkg/types"
)

// confirmValue is the literal the admin trigger has always expected.
const confirmValue = "yes"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Update the popups of all published locations",
	Long: `Run visits every published location post, composes its popup text from
the records file, saves the popup fields, and assigns the location
category. Locations are processed one at a time; a failure on one location
is reported and the run continues.

Writes require --confirm yes. Use --dry-run to compose without writing.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("host", "", "host to update: wordpress or local")
	runCmd.Flags().String("db", "", "SQLite mirror path for --host local")
	runCmd.Flags().String("fields", "", "YAML field table overriding the configured one")
	runCmd.Flags().String("report", "", "write a run report (.yaml or .json)")
	runCmd.Flags().String("confirm", "", `must be "yes" to write to the host`)
	runCmd.Flags().Bool("dry-run", false, "compose descriptions without writing")

	bindFlag("host", runCmd.Flags().Lookup("host"))
	bindFlag("popup.dry_run", runCmd.Flags().Lookup("dry-run"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	confirm, _ := cmd.Flags().GetString("confirm")
	if !cfg.Popup.DryRun && confirm != confirmValue {
		return fmt.Errorf("refusing to write without --confirm %s (or use --dry-run)", confirmValue)
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Local.DBPath = db
	}

	if path, _ := cmd.Flags().GetString("fields"); path != "" {
		table, err := fields.LoadTable(path)
		if err != nil {
			return err
		}
		cfg.Popup.Fields = table
	}

	host, closeHost, err := openHost(cfg)
	if err != nil {
		return err
	}
	defer closeHost()

	gen, err := popup.NewGenerator(host, popup.ConfigFrom(cfg), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, runErr := gen.Run(ctx)
	report.PrintSummary(cmd.OutOrStdout(), summary)

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		r := report.Report{GeneratedAt: time.Now().UTC(), Records: cfg.Records.Path, Summary: summary}
		if err := report.Write(path, r); err != nil {
			logger.WithError(err).Error("writing run report failed")
		}
	}

	if runErr != nil {
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d location(s) failed, %d not tagged", summary.Failed, summary.TagFailed)
	}
	return nil
}

// openHost builds the Host named by c.Host and a func releasing it.
func openHost(c types.GeneratorConfig) (popup.Host, func() error, error) {
	switch c.Host {
	case types.HostLocal:
		store, err := localdb.NewStore(c.Local)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case types.HostWordPress:
		wp, err := wordpress.New(wordPressConfig(c, loadedSecrets), c.Locations.RestBase, c.Category.RestBase, logger)
		if err != nil {
			return nil, nil, err
		}
		return wp, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown host %q", c.Host)
	}
}
