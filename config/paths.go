// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/paths.go
// Summary: Path helpers for texeldesk configuration and state files.

package config

import (
	"os"
	"path/filepath"
)

const (
	appDirName     = "texeldesk"
	configFileName = "config.yaml"
	layoutFileName = "layout.db"
	logFileName    = "texeldesk.log"
)

func configRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appDirName), nil
}

// stateRoot follows XDG_STATE_HOME, falling back to ~/.local/state.
func stateRoot() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", appDirName), nil
}

// DefaultPath returns the location of the user configuration file.
func DefaultPath() (string, error) {
	root, err := configRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, configFileName), nil
}

// DefaultLayoutPath returns the location of the window layout database.
func DefaultLayoutPath() (string, error) {
	root, err := stateRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, layoutFileName), nil
}

// DefaultLogPath returns the location of the rotating log file.
func DefaultLogPath() (string, error) {
	root, err := stateRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, logFileName), nil
}
