// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the summary of a popup run to disk.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/popup-generator/internal/popup"
)

// Report is the on-disk form of a run.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Records     string        `json:"records" yaml:"records"`
	Summary     popup.Summary `json:"summary" yaml:"summary"`
}

// Write stores r at path. The format follows the extension: ".json" writes
// indented JSON, anything else YAML. The file is replaced atomically.
func Write(path string, r Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(r, "", "  ")
	default:
		data, err = yaml.Marshal(r)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// PrintSummary writes the human-readable run summary and, for unmatched
// or failed locations, one line each.
func PrintSummary(w io.Writer, s popup.Summary) {
	for _, o := range s.Outcomes {
		switch {
		case o.Error != "":
			fmt.Fprintf(w, "failed    %d %q: %s\n", o.PostID, o.Title, o.Error)
		case !o.Matched:
			fmt.Fprintf(w, "unmatched %d %q\n", o.PostID, o.Title)
		}
		if o.TagError != "" {
			fmt.Fprintf(w, "untagged  %d %q: %s\n", o.PostID, o.Title, o.TagError)
		}
	}

	mode := ""
	if s.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "\nlocations: %d, updated: %d, unmatched: %d, failed: %d, tagged: %d%s\n",
		s.Locations, s.Updated, s.Unmatched, s.Failed, s.Tagged, mode)
	if s.DataUnavailable {
		fmt.Fprintln(w, "warning: records file unavailable, all descriptions are empty")
	}
}
