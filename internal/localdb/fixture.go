// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package localdb

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/popup-generator/pkg/types"
)

// Fixture seeds the mirror with taxonomies and locations.
type Fixture struct {
	// PostType applies to locations that do not name their own.
	PostType   string           `yaml:"post_type"`
	Taxonomies []string         `yaml:"taxonomies"`
	Locations  []types.Location `yaml:"locations"`
}

// ImportSummary holds counts from an import.
type ImportSummary struct {
	Taxonomies int
	Locations  int
}

// ImportFile reads a YAML fixture from path and imports it.
func (s *Store) ImportFile(ctx context.Context, path string) (ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ImportSummary{}, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return s.Import(ctx, f)
}

// Import registers the fixture's taxonomies and inserts its locations.
// Locations always get new IDs; fixture IDs are ignored.
func (s *Store) Import(ctx context.Context, f Fixture) (ImportSummary, error) {
	var sum ImportSummary
	for _, tax := range f.Taxonomies {
		if err := s.RegisterTaxonomy(ctx, tax); err != nil {
			return sum, err
		}
		sum.Taxonomies++
	}
	for _, loc := range f.Locations {
		if loc.PostType == "" {
			loc.PostType = f.PostType
		}
		if loc.PostType == "" {
			return sum, fmt.Errorf("location %q has no post type", loc.Title)
		}
		if _, err := s.AddLocation(ctx, loc); err != nil {
			return sum, err
		}
		sum.Locations++
	}
	return sum, nil
}

// Snapshot is the exported state of one post.
type Snapshot struct {
	Location types.Location    `json:"location" yaml:"location"`
	Fields   types.FieldValues `json:"fields,omitempty" yaml:"fields,omitempty"`
	Terms    []types.Term      `json:"terms,omitempty" yaml:"terms,omitempty"`
}

// Snapshots returns every post matching q with its fields and its terms
// in taxonomy.
func (s *Store) Snapshots(ctx context.Context, q types.LocationQuery, taxonomy string) ([]Snapshot, error) {
	locs, err := s.Locations(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(locs))
	for _, loc := range locs {
		fv, err := s.Fields(ctx, loc.ID)
		if err != nil {
			return nil, err
		}
		terms, err := s.Terms(ctx, loc.ID, taxonomy)
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{Location: loc, Fields: fv, Terms: terms})
	}
	return out, nil
}

// ExportYAML writes Snapshots to path, replacing any existing file
// atomically.
func (s *Store) ExportYAML(ctx context.Context, path string, q types.LocationQuery, taxonomy string) error {
	snaps, err := s.Snapshots(ctx, q, taxonomy)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
