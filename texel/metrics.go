// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: texel/metrics.go
// Summary: Frame statistics and the log-based frame observer.

package texel

import (
	"log"
	"time"
)

// FrameStats describes one compositor pass.
type FrameStats struct {
	// Dirty is the number of windows that requested a repaint.
	Dirty int
	// Windows is the number of windows actually painted, overlap chains included.
	Windows int
	// Cells is the number of cells written to the driver.
	Cells    int
	Duration time.Duration
}

// FrameLogger logs frame metrics to the provided logger.
type FrameLogger struct {
	logger *log.Logger
	// MinDuration suppresses frames faster than this.
	MinDuration time.Duration
}

// NewFrameLogger creates a new frame observer that logs metrics.
func NewFrameLogger(l *log.Logger) *FrameLogger {
	if l == nil {
		l = log.Default()
	}
	return &FrameLogger{logger: l}
}

func (f *FrameLogger) ObserveFrame(stats FrameStats) {
	if f == nil || f.logger == nil || stats.Duration < f.MinDuration {
		return
	}
	f.logger.Printf("frame dirty=%d windows=%d cells=%d duration=%s", stats.Dirty, stats.Windows, stats.Cells, stats.Duration)
}

// MultiFrameObserver fans frame statistics out to several observers.
type MultiFrameObserver []FrameObserver

func (m MultiFrameObserver) ObserveFrame(stats FrameStats) {
	for _, o := range m {
		if o != nil {
			o.ObserveFrame(stats)
		}
	}
}
