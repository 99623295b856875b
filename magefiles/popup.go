//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Popup groups targets that drive the CLI against the configured host.
type Popup mg.Namespace

// DryRun composes every popup without writing and stores a report.
func (Popup) DryRun() error {
	mg.Deps(Build, Init)
	report := filepath.Join("reports", "dry-run-"+time.Now().Format("20060102-150405")+".yaml")
	return sh.RunV(filepath.Join(binDir, binName), "run", "--dry-run", "--report", report)
}

// Check validates the records file.
func (Popup) Check() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "records", "check")
}
