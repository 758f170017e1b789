// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/texeldesk/logging.go
// Summary: Routes the standard logger to a rotating file while the desktop owns the terminal.

package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/framegrace/texeldesk/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

func openLog(path string) (*lumberjack.Logger, error) {
	if path == "" {
		var err error
		if path, err = config.DefaultLogPath(); err != nil {
			return nil, fmt.Errorf("resolve log path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}, nil
}

func (a *app) setupLogging() error {
	out, err := openLog(a.flags.logFile)
	if err != nil {
		return err
	}
	log.SetOutput(out)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	a.logs = out
	return nil
}
