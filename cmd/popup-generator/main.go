// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the popup-generator CLI. It fills
// the popups of map location posts from an address/contact records file
// and tags each location with a fixed category.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/popup-generator/internal/logging"
	"github.com/pdiddy/popup-generator/internal/secrets"
	"github.com/pdiddy/popup-generator/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the merged configuration (defaults, file, env, flags).
	cfg types.GeneratorConfig

	// logger is the structured logger built from cfg.Log.
	logger *logrus.Logger

	// loadedSecrets holds credentials loaded from the secrets directory.
	loadedSecrets secrets.Secrets
)

// rootCmd is the base command for the popup-generator CLI.
var rootCmd = &cobra.Command{
	Use:   "popup-generator",
	Short: "Generate map popups for location posts from address records",
	Long: `popup-generator reads a JSON file of address/contact records, matches
each record to a published location post by title, writes the composed
address text into the post's popup fields, and assigns the location
category.

The host is either a WordPress site reached over the REST API or a local
SQLite mirror used for staging and tests.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c

		logger, err = logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}

		dir := viper.GetString("secrets_dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := s.Keys()
			sort.Strings(keys)
			logger.WithField("keys", keys).Debug("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./popup-generator.yaml or ~/.config/popup-generator/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of credential files")
	rootCmd.PersistentFlags().String("records", "", "records JSON file (default output_converted.json)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")

	bindFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
	bindFlag("records.path", rootCmd.PersistentFlags().Lookup("records"))
	bindFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	// A missing .env is normal; values may come from the real environment.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("popup-generator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "popup-generator"))
		}
	}

	viper.SetEnvPrefix("POPUP_GENERATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
