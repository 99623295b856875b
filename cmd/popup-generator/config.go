// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/popup-generator/internal/secrets"
	"github.com/pdiddy/popup-generator/pkg/types"
)

const (
	defaultRecordsPath = "output_converted.json"
	defaultPostType    = "mapster-wp-location"
	defaultTaxonomy    = "wp-map-category"
	defaultTermSlug    = "haendler"
	defaultDBPath      = "data/popup.db"
	defaultTimeout     = 30 * time.Second
	defaultUserAgent   = "popup-generator/2.1"
)

// setDefaults registers the defaults that reproduce the Mapster setup.
// Every key needs a default so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("host", string(types.HostWordPress))
	v.SetDefault("records.path", defaultRecordsPath)
	v.SetDefault("locations.post_type", defaultPostType)
	v.SetDefault("locations.status", "publish")
	v.SetDefault("locations.rest_base", "")
	v.SetDefault("category.taxonomy", defaultTaxonomy)
	v.SetDefault("category.slug", defaultTermSlug)
	v.SetDefault("category.rest_base", "")
	v.SetDefault("local.db_path", defaultDBPath)
	v.SetDefault("wordpress.base_url", "")
	v.SetDefault("wordpress.user", "")
	v.SetDefault("wordpress.app_password", "")
	v.SetDefault("wordpress.max_retries", 0)
	v.SetDefault("wordpress.timeout", defaultTimeout)
	v.SetDefault("wordpress.user_agent", defaultUserAgent)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("popup.dry_run", false)
}

func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", f.Name, err))
	}
}

// loadConfig decodes the global viper instance.
func loadConfig() (types.GeneratorConfig, error) {
	return decodeConfig(viper.GetViper())
}

// decodeConfig decodes v into a GeneratorConfig and fills REST bases from
// their post type and taxonomy when unset.
func decodeConfig(v *viper.Viper) (types.GeneratorConfig, error) {
	var c types.GeneratorConfig
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	if c.Locations.RestBase == "" {
		c.Locations.RestBase = c.Locations.PostType
	}
	if c.Category.RestBase == "" {
		c.Category.RestBase = c.Category.Taxonomy
	}
	switch c.Host {
	case types.HostWordPress, types.HostLocal:
	default:
		return c, fmt.Errorf("unknown host %q: use wordpress or local", c.Host)
	}
	return c, nil
}

// wordPressConfig returns cfg.WordPress with credentials filled from the
// secrets directory when not set in config.
func wordPressConfig(c types.GeneratorConfig, s secrets.Secrets) types.WordPressConfig {
	wp := c.WordPress
	wp.User = s.Or(secrets.KeyWordPressUser, wp.User)
	wp.AppPassword = s.Or(secrets.KeyWordPressAppPassword, wp.AppPassword)
	return wp
}
