// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package metrics exports bootstrap and frame lifecycle metrics
// in the Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devblok/koruhal/core"
	"github.com/devblok/koruhal/gfx"
)

const namespace = "koru"

// Failure steps besides the gfx frame steps.
const (
	StepReentrant = "reentrant"
	StepUnknown   = "unknown"
)

// Collector holds the metrics of one process on its own registry.
type Collector struct {
	registry *prometheus.Registry

	framesPresented prometheus.Counter
	presentFailures *prometheus.CounterVec
	presentDuration prometheus.Histogram
	physicalDevices prometheus.Gauge
}

// New creates a collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		framesPresented: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_presented_total",
			Help:      "Total number of frames presented",
		}),
		presentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "present_failures_total",
			Help:      "Total number of failed presents by step",
		}, []string{"step"}),
		presentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "present_duration_seconds",
			Help:      "Duration of present calls in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .0166, .025, .05, .1},
		}),
		physicalDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "physical_devices",
			Help:      "Physical devices found by the last enumeration",
		}),
	}
	c.registry.MustRegister(c.framesPresented, c.presentFailures, c.presentDuration, c.physicalDevices)
	return c
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveBackend records the device count of a backend.
func (c *Collector) ObserveBackend(b *core.Backend) {
	c.physicalDevices.Set(float64(len(b.Devices())))
}

// Present presents the canvas and records the outcome.
func (c *Collector) Present(canvas *gfx.Canvas) error {
	start := time.Now()
	err := canvas.Present()
	c.ObservePresent(time.Since(start), err)
	return err
}

// ObservePresent records one present call.
func (c *Collector) ObservePresent(d time.Duration, err error) {
	c.presentDuration.Observe(d.Seconds())
	if err == nil {
		c.framesPresented.Inc()
		return
	}
	c.presentFailures.WithLabelValues(step(err)).Inc()
}

func step(err error) string {
	var frameErr *gfx.FrameError
	switch {
	case errors.As(err, &frameErr):
		return frameErr.Step
	case errors.Is(err, gfx.ErrPresentInProgress):
		return StepReentrant
	default:
		return StepUnknown
	}
}
