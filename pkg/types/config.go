// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by hosts that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "popup-generator/2.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on throttled responses (0 = default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// HostKind selects the Host implementation a run talks to.
type HostKind string

const (
	HostWordPress HostKind = "wordpress"
	HostLocal     HostKind = "local"
)

// RecordsConfig locates the address/contact records file.
type RecordsConfig struct {
	// Path is the JSON file holding the record array.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// WordPressConfig holds settings for the WordPress REST host.
type WordPressConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the site root, e.g. "https://example.com".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// User is the account the application password belongs to.
	User string `json:"user" yaml:"user" mapstructure:"user"`

	// AppPassword is the application password. Usually loaded from .secrets/.
	AppPassword string `json:"-" yaml:"-" mapstructure:"app_password"`
}

// LocationsConfig describes the post type holding map locations.
type LocationsConfig struct {
	PostType string `json:"post_type" yaml:"post_type" mapstructure:"post_type"`

	// RestBase is the REST route segment for PostType. Defaults to PostType.
	RestBase string `json:"rest_base" yaml:"rest_base" mapstructure:"rest_base"`

	Status string `json:"status" yaml:"status" mapstructure:"status"`
}

// CategoryConfig names the taxonomy term assigned to every location.
type CategoryConfig struct {
	Taxonomy string `json:"taxonomy" yaml:"taxonomy" mapstructure:"taxonomy"`

	// RestBase is the REST route segment for Taxonomy. Defaults to Taxonomy.
	RestBase string `json:"rest_base" yaml:"rest_base" mapstructure:"rest_base"`

	Slug string `json:"slug" yaml:"slug" mapstructure:"slug"`
}

// LocalConfig holds settings for the SQLite host mirror.
type LocalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	// Level is a logrus level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PopupConfig holds the field table and run mode.
type PopupConfig struct {
	// Fields maps host field keys to popup roles. Empty means the
	// built-in table.
	Fields []FieldSpec `json:"fields,omitempty" yaml:"fields,omitempty" mapstructure:"fields"`

	// DryRun composes descriptions without writing to the host.
	DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`
}

// GeneratorConfig groups all settings for a popup generation run.
type GeneratorConfig struct {
	Host      HostKind        `json:"host" yaml:"host" mapstructure:"host"`
	Records   RecordsConfig   `json:"records" yaml:"records" mapstructure:"records"`
	WordPress WordPressConfig `json:"wordpress" yaml:"wordpress" mapstructure:"wordpress"`
	Locations LocationsConfig `json:"locations" yaml:"locations" mapstructure:"locations"`
	Category  CategoryConfig  `json:"category" yaml:"category" mapstructure:"category"`
	Local     LocalConfig     `json:"local" yaml:"local" mapstructure:"local"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Popup     PopupConfig     `json:"popup" yaml:"popup" mapstructure:"popup"`
}
