// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: metrics/metrics.go
// Summary: Prometheus collectors fed by compositor frames and window events.
// Usage: obs := metrics.NewObserver(prometheus.DefaultRegisterer);
// desktop.SetFrameObserver(obs); desktop.Subscribe(obs)

package metrics

import (
	"github.com/framegrace/texeldesk/texel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Observer records frame statistics and window lifecycle events.
type Observer struct {
	Frames        prometheus.Counter
	DirtyWindows  prometheus.Counter
	PaintedWindow prometheus.Counter
	Cells         prometheus.Counter
	FrameDuration prometheus.Histogram
	WindowsOpen   prometheus.Gauge
	WindowEvents  *prometheus.CounterVec
}

// NewObserver registers the collectors with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		Frames: f.NewCounter(prometheus.CounterOpts{
			Name: "texeldesk_frames_total",
			Help: "Total number of compositor passes that painted",
		}),
		DirtyWindows: f.NewCounter(prometheus.CounterOpts{
			Name: "texeldesk_dirty_windows_total",
			Help: "Windows that requested a repaint",
		}),
		PaintedWindow: f.NewCounter(prometheus.CounterOpts{
			Name: "texeldesk_painted_windows_total",
			Help: "Windows painted, overlap chains included",
		}),
		Cells: f.NewCounter(prometheus.CounterOpts{
			Name: "texeldesk_cells_written_total",
			Help: "Cells written to the terminal",
		}),
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "texeldesk_frame_duration_seconds",
			Help:    "Compositor pass duration in seconds",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		WindowsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "texeldesk_windows_open",
			Help: "Number of registered windows",
		}),
		WindowEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "texeldesk_window_events_total",
				Help: "Window events by type",
			},
			[]string{"type"},
		),
	}
}

func (o *Observer) ObserveFrame(stats texel.FrameStats) {
	o.Frames.Inc()
	o.DirtyWindows.Add(float64(stats.Dirty))
	o.PaintedWindow.Add(float64(stats.Windows))
	o.Cells.Add(float64(stats.Cells))
	o.FrameDuration.Observe(stats.Duration.Seconds())
}

func (o *Observer) OnEvent(ev texel.Event) {
	o.WindowEvents.WithLabelValues(ev.Type.String()).Inc()
	switch ev.Type {
	case texel.EventWindowAdded:
		o.WindowsOpen.Inc()
	case texel.EventWindowClosed:
		o.WindowsOpen.Dec()
	}
}
