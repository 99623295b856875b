// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/popup-generator/internal/popup"
)

func sampleReport() Report {
	return Report{
		GeneratedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		Records:     "output_converted.json",
		Summary: popup.Summary{
			Host:      "local",
			Locations: 3,
			Updated:   2,
			Unmatched: 1,
			Failed:    1,
			Tagged:    2,
			TagFailed: 1,
			Outcomes: []popup.Outcome{
				{PostID: 1, Title: "Acme", Matched: true, Saved: true, Tagged: true, Description: "Main St 1"},
				{PostID: 2, Title: "Unknown", Saved: true, Tagged: true},
				{PostID: 3, Title: "Broken", Matched: true, Error: "HTTP 500", TagError: "HTTP 403"},
			},
		},
	}
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, Write(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, sampleReport(), got)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.JSON")
	require.NoError(t, Write(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleReport(), got)
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))
	require.NoError(t, Write(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestWriteMissingDir(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "no", "such", "run.yaml"), sampleReport())
	require.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, sampleReport().Summary)

	out := buf.String()
	assert.Contains(t, out, `unmatched 2 "Unknown"`)
	assert.Contains(t, out, `failed    3 "Broken": HTTP 500`)
	assert.Contains(t, out, `untagged  3 "Broken": HTTP 403`)
	assert.Contains(t, out, "locations: 3, updated: 2, unmatched: 1, failed: 1, tagged: 2\n")
	assert.NotContains(t, out, "Acme")
	assert.NotContains(t, out, "warning")
}

func TestPrintSummaryDryRunDataUnavailable(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, popup.Summary{DryRun: true, DataUnavailable: true, Locations: 1, Unmatched: 1,
		Outcomes: []popup.Outcome{{PostID: 1, Title: "Acme"}}})

	out := buf.String()
	assert.Contains(t, out, "(dry run)")
	assert.Contains(t, out, "records file unavailable")
}
