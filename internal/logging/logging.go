// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the structured logrus logger shared by the CLI
// and the batch driver.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/popup-generator/pkg/types"
)

// Field names used across log lines.
const (
	FieldService  = "service"
	FieldPostID   = "post_id"
	FieldTitle    = "title"
	FieldTaxonomy = "taxonomy"
	FieldTerm     = "term"
	FieldPath     = "path"
)

const serviceName = "popup-generator"

// New returns a logger writing to w. Level defaults to info and format
// to text; "json" selects the JSON formatter with RFC 3339 timestamps.
func New(cfg types.LogConfig, w io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	level := logrus.InfoLevel
	if cfg.Level != "" {
		l, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		return nil, fmt.Errorf("invalid log format %q: use text or json", cfg.Format)
	}

	return log, nil
}

// Service returns an entry tagged with the service name.
func Service(log logrus.FieldLogger) logrus.FieldLogger {
	return log.WithField(FieldService, serviceName)
}

// ForLocation returns an entry tagged with a location's post ID and title.
func ForLocation(log logrus.FieldLogger, loc types.Location) logrus.FieldLogger {
	return log.WithFields(logrus.Fields{
		FieldPostID: loc.ID,
		FieldTitle:  loc.Title,
	})
}
