// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package popup drives a popup generation run: it visits every published
// location, composes its popup description from the records file, hands
// the resulting field values to the host, and tags the location with the
// configured category term.
package popup

import (
	"context"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/popup-generator/internal/fields"
	"github.com/pdiddy/popup-generator/internal/logging"
	"github.com/pdiddy/popup-generator/internal/records"
	"github.com/pdiddy/popup-generator/pkg/types"
)

// Host is the CMS a run reads locations from and writes popups to. The
// WordPress REST client and the SQLite mirror both implement it.
type Host interface {
	// Name identifies the host in logs ("wordpress", "local").
	Name() string

	// Preflight reports whether the configured account may run a batch.
	Preflight(ctx context.Context) error

	// Locations lists the locations matching q in host order.
	Locations(ctx context.Context, q types.LocationQuery) ([]types.Location, error)

	// SaveFields persists values as the location's custom fields.
	SaveFields(ctx context.Context, postID int64, values types.FieldValues) error

	// TaxonomyExists reports whether taxonomy is registered.
	TaxonomyExists(ctx context.Context, taxonomy string) (bool, error)

	// FindTerm returns the term with slug, or nil when none exists.
	FindTerm(ctx context.Context, taxonomy, slug string) (*types.Term, error)

	// CreateTerm inserts a new term.
	CreateTerm(ctx context.Context, taxonomy, name, slug string) (types.Term, error)

	// SetTerms replaces the location's terms in taxonomy with termIDs.
	SetTerms(ctx context.Context, postID int64, taxonomy string, termIDs []int64) error
}

// ErrTaxonomyMissing reports that the category taxonomy is not registered.
var ErrTaxonomyMissing = errors.New("taxonomy does not exist")

// Config holds the settings of one run.
type Config struct {
	RecordsPath string
	Query       types.LocationQuery
	Taxonomy    string
	TermSlug    string
	Fields      []types.FieldSpec
	DryRun      bool
}

// ConfigFrom derives a run Config from the generator configuration,
// falling back to the built-in field table.
func ConfigFrom(cfg types.GeneratorConfig) Config {
	table := cfg.Popup.Fields
	if len(table) == 0 {
		table = fields.DefaultTable()
	}
	return Config{
		RecordsPath: cfg.Records.Path,
		Query: types.LocationQuery{
			PostType: cfg.Locations.PostType,
			Status:   cfg.Locations.Status,
		},
		Taxonomy: cfg.Category.Taxonomy,
		TermSlug: cfg.Category.Slug,
		Fields:   table,
		DryRun:   cfg.Popup.DryRun,
	}
}

// Outcome records what happened to one location.
type Outcome struct {
	PostID      int64  `json:"post_id" yaml:"post_id"`
	Title       string `json:"title" yaml:"title"`
	Matched     bool   `json:"matched" yaml:"matched"`
	Description string `json:"description" yaml:"description"`
	Saved       bool   `json:"saved" yaml:"saved"`
	Tagged      bool   `json:"tagged" yaml:"tagged"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
	TagError    string `json:"tag_error,omitempty" yaml:"tag_error,omitempty"`
}

// Summary holds counts from a run.
type Summary struct {
	Host            string    `json:"host" yaml:"host"`
	DryRun          bool      `json:"dry_run" yaml:"dry_run"`
	Locations       int       `json:"locations" yaml:"locations"`
	Updated         int       `json:"updated" yaml:"updated"`
	Unmatched       int       `json:"unmatched" yaml:"unmatched"`
	Failed          int       `json:"failed" yaml:"failed"`
	Tagged          int       `json:"tagged" yaml:"tagged"`
	TagFailed       int       `json:"tag_failed" yaml:"tag_failed"`
	DataUnavailable bool      `json:"data_unavailable" yaml:"data_unavailable"`
	Outcomes        []Outcome `json:"outcomes" yaml:"outcomes"`
}

// HasFailures reports whether any location failed to save or tag.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.TagFailed > 0
}

// Generator runs popup generation against a Host.
type Generator struct {
	host Host
	cfg  Config
	log  logrus.FieldLogger
}

// NewGenerator validates cfg and returns a Generator.
func NewGenerator(host Host, cfg Config, log logrus.FieldLogger) (*Generator, error) {
	if err := fields.Validate(cfg.Fields); err != nil {
		return nil, fmt.Errorf("invalid field table: %w", err)
	}
	if cfg.Query.PostType == "" {
		return nil, fmt.Errorf("location post type is required")
	}
	if cfg.Query.Status == "" {
		cfg.Query.Status = "publish"
	}
	return &Generator{host: host, cfg: cfg, log: logging.Service(log).WithField("host", host.Name())}, nil
}

// Run processes every location once, strictly in host order. Failures on
// one location are recorded and the run moves on; only a failed
// preflight, a failed location listing, or ctx cancellation end it early.
func (g *Generator) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Host: g.host.Name(), DryRun: g.cfg.DryRun}

	if err := g.host.Preflight(ctx); err != nil {
		return summary, fmt.Errorf("preflight: %w", err)
	}

	locs, err := g.host.Locations(ctx, g.cfg.Query)
	if err != nil {
		return summary, fmt.Errorf("listing locations: %w", err)
	}
	if len(locs) == 0 {
		g.log.WithField("post_type", g.cfg.Query.PostType).Warn("no locations found")
		return summary, nil
	}

	recs, err := records.Load(g.cfg.RecordsPath)
	if err != nil {
		summary.DataUnavailable = true
		g.log.WithError(err).WithField(logging.FieldPath, g.cfg.RecordsPath).
			Error("records unavailable, popups will have no description")
	}

	term, tagErr := g.resolveTerm(ctx)
	if tagErr != nil {
		g.log.WithError(tagErr).WithFields(logrus.Fields{
			logging.FieldTaxonomy: g.cfg.Taxonomy,
			logging.FieldTerm:     g.cfg.TermSlug,
		}).Error("category unavailable, locations will not be tagged")
	}

	for _, loc := range locs {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		out := g.process(ctx, loc, recs, term, tagErr)
		summary.Locations++
		if !out.Matched {
			summary.Unmatched++
		}
		if out.Error != "" {
			summary.Failed++
		} else if out.Saved {
			summary.Updated++
		}
		if out.Tagged {
			summary.Tagged++
		} else if out.TagError != "" {
			summary.TagFailed++
		}
		summary.Outcomes = append(summary.Outcomes, out)
	}

	g.log.WithFields(logrus.Fields{
		"locations": summary.Locations,
		"updated":   summary.Updated,
		"unmatched": summary.Unmatched,
		"failed":    summary.Failed,
		"tagged":    summary.Tagged,
	}).Info("finished updating all locations")

	return summary, nil
}

func (g *Generator) process(ctx context.Context, loc types.Location, recs []types.Record, term *types.Term, tagErr error) Outcome {
	log := logging.ForLocation(g.log, loc)
	out := Outcome{PostID: loc.ID, Title: loc.Title}

	desc, found := records.Describe(recs, loc.Title)
	out.Matched = found
	out.Description = desc
	if !found && recs != nil {
		log.Warn("no matching record for post title")
	}

	values, err := fields.Build(g.cfg.Fields, fields.Input{Title: loc.Title, Description: desc})
	if err != nil {
		out.Error = err.Error()
		log.WithError(err).Error("building field values failed")
		return out
	}

	if g.cfg.DryRun {
		log.WithField("description", desc).Info("dry run, popup not saved")
		return out
	}

	if err := g.host.SaveFields(ctx, loc.ID, values); err != nil {
		out.Error = err.Error()
		log.WithError(err).Error("saving popup fields failed")
	} else {
		out.Saved = true
		log.Info("updated post")
	}

	switch {
	case tagErr != nil:
		out.TagError = tagErr.Error()
	case term != nil:
		if err := g.host.SetTerms(ctx, loc.ID, g.cfg.Taxonomy, []int64{term.ID}); err != nil {
			out.TagError = err.Error()
			log.WithError(err).WithField(logging.FieldTerm, term.Slug).Error("assigning category failed")
		} else {
			out.Tagged = true
			log.WithFields(logrus.Fields{
				logging.FieldTaxonomy: g.cfg.Taxonomy,
				logging.FieldTerm:     term.Slug,
			}).Info("assigned category")
		}
	}
	return out
}

// resolveTerm finds the category term, creating it when missing. It
// returns nil without error in dry-run mode or when no category is
// configured, so no tagging is attempted.
func (g *Generator) resolveTerm(ctx context.Context) (*types.Term, error) {
	if g.cfg.DryRun || g.cfg.Taxonomy == "" || g.cfg.TermSlug == "" {
		return nil, nil
	}

	ok, err := g.host.TaxonomyExists(ctx, g.cfg.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("checking taxonomy %s: %w", g.cfg.Taxonomy, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaxonomyMissing, g.cfg.Taxonomy)
	}

	term, err := g.host.FindTerm(ctx, g.cfg.Taxonomy, g.cfg.TermSlug)
	if err != nil {
		return nil, fmt.Errorf("finding term %s: %w", g.cfg.TermSlug, err)
	}
	if term != nil {
		return term, nil
	}

	created, err := g.host.CreateTerm(ctx, g.cfg.Taxonomy, TermName(g.cfg.TermSlug), g.cfg.TermSlug)
	if err != nil {
		return nil, fmt.Errorf("creating term %s: %w", g.cfg.TermSlug, err)
	}
	g.log.WithFields(logrus.Fields{
		logging.FieldTaxonomy: g.cfg.Taxonomy,
		logging.FieldTerm:     created.Slug,
		"term_id":             created.ID,
	}).Info("created new term")
	return &created, nil
}

// TermName derives a display name from a slug by upper-casing its first
// letter ("haendler" becomes "Haendler").
func TermName(slug string) string {
	r, size := utf8.DecodeRuneInString(slug)
	if r == utf8.RuneError {
		return slug
	}
	return string(unicode.ToUpper(r)) + slug[size:]
}
