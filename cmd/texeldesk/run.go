// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/run.go
// Summary: The run command: terminal check, desktop assembly, layout and metrics wiring.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/framegrace/texeldesk/config"
	"github.com/framegrace/texeldesk/layoutstore"
	"github.com/framegrace/texeldesk/metrics"
	"github.com/framegrace/texeldesk/texel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type runFlags struct {
	layoutDB    string
	noLayout    bool
	metricsAddr string
	sources     []string
	exec        string
	sourceStyle string
}

var errNotTerminal = errors.New("texeldesk needs an interactive terminal on stdin and stdout")

func (a *app) runCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDesktop(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.layoutDB, "layout-db", "", "Window layout database (default: $XDG_STATE_HOME/texeldesk/layout.db)")
	fl.BoolVar(&f.noLayout, "no-layout", false, "Neither restore nor save window geometry")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	fl.StringArrayVar(&f.sources, "source", nil, "Open a highlighted source window for FILE (repeatable)")
	fl.StringVar(&f.exec, "exec", "", "Run a shell command in an output window")
	fl.StringVar(&f.sourceStyle, "source-style", "", "Chroma style for source windows")
	return cmd
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func (a *app) runDesktop(cmd *cobra.Command, f runFlags) error {
	if !isTerminal() {
		return errNotTerminal
	}
	if err := a.setupLogging(); err != nil {
		return err
	}
	cfg, cfgPath := a.loadConfig()
	log.Printf("Texeldesk: starting (config %s)", cfgPath)

	desk, err := texel.NewDesktop(cfg.Options())
	if err != nil {
		return err
	}
	defer desk.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observers := texel.MultiFrameObserver{}
	if a.flags.verboseLogs {
		observers = append(observers, texel.NewFrameLogger(nil))
	}
	if f.metricsAddr != "" {
		obs, err := startMetrics(ctx, f.metricsAddr)
		if err != nil {
			return err
		}
		desk.Subscribe(obs)
		observers = append(observers, obs)
	}
	if len(observers) > 0 {
		desk.SetFrameObserver(observers)
	}

	if err := populate(desk, demoOptions{Sources: f.sources, Exec: f.exec, SourceStyle: f.sourceStyle}); err != nil {
		return err
	}

	var store *layoutstore.Store
	if !f.noLayout {
		store = openLayout(f.layoutDB)
	}
	if store != nil {
		defer store.Close()
		if n, err := store.Restore(desk.Registry()); err != nil {
			log.Printf("Layout: restore failed: %v", err)
		} else {
			log.Printf("Layout: restored %d windows", n)
		}
	}

	return a.loop(ctx, desk, store)
}

// loop runs the desktop and saves the layout after a clean exit. A loop fault
// is returned once the terminal is restored so main can report it.
func (a *app) loop(ctx context.Context, desk *texel.Desktop, store *layoutstore.Store) error {
	a.exitCode = desk.Run(ctx)
	log.Printf("Texeldesk: loop exited with code %d", a.exitCode)
	if err := desk.Err(); err != nil {
		return err
	}

	if store != nil {
		if n, err := store.SaveWindows(desk.Registry()); err != nil {
			log.Printf("Layout: save failed: %v", err)
		} else {
			log.Printf("Layout: saved %d windows", n)
		}
	}
	return nil
}

// openLayout returns nil when the database cannot be used; the desktop runs
// without persistence in that case.
func openLayout(path string) *layoutstore.Store {
	if path == "" {
		var err error
		if path, err = config.DefaultLayoutPath(); err != nil {
			log.Printf("Layout: Failed to resolve database path: %v", err)
			return nil
		}
	}
	store, err := layoutstore.Open(path)
	if err != nil {
		log.Printf("Layout: %v", err)
		return nil
	}
	return store
}

func startMetrics(ctx context.Context, addr string) (*metrics.Observer, error) {
	reg := prometheus.NewRegistry()
	obs := metrics.NewObserver(reg)
	srv, err := metrics.Listen(addr, reg)
	if err != nil {
		return nil, fmt.Errorf("start metrics: %w", err)
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.Printf("Metrics: server stopped: %v", err)
		}
	}()
	return obs, nil
}
