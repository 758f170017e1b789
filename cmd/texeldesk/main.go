// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/main.go
// Summary: texeldesk command line: root command and shared flags.
// Usage: texeldesk run [--source FILE]... [--exec CMD]; texeldesk config init|show|path

package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/framegrace/texeldesk/config"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath  string
	logFile     string
	verboseLogs bool
}

type app struct {
	flags    rootFlags
	exitCode int
	logs     io.Closer
}

func main() {
	a := &app{}
	err := a.command().Execute()
	if a.logs != nil {
		a.logs.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(a.exitCode)
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "texeldesk",
		Short:         "Overlapping windows in a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDesktop(cmd, runFlags{})
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Configuration file (default: $XDG_CONFIG_HOME/texeldesk/config.yaml)")
	pf.StringVar(&a.flags.logFile, "log-file", "", "Log file (default: $XDG_STATE_HOME/texeldesk/texeldesk.log)")
	pf.BoolVar(&a.flags.verboseLogs, "verbose-logs", false, "Log every painted frame")

	root.AddCommand(a.runCommand())
	root.AddCommand(a.configCommand())
	return root
}

func (a *app) resolveConfigPath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	return config.DefaultPath()
}

// loadConfig never fails on a broken file; the defaults are used instead.
func (a *app) loadConfig() (config.Config, string) {
	path, err := a.resolveConfigPath()
	if err != nil {
		log.Printf("Config: Failed to resolve config path: %v", err)
		return config.Default(), ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Printf("Config: %v (using defaults)", err)
	}
	return cfg, path
}
