// Package metrics records the outcome of a digest run and pushes it to a
// Prometheus Pushgateway. Short-lived jobs cannot be scraped, so the gauges
// are pushed once at the end of each run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Outcome summarizes one run.
type Outcome struct {
	Started     time.Time
	Duration    time.Duration
	Items       int
	Promotional int
	Err         error
}

// Recorder holds the run gauges in a private registry.
type Recorder struct {
	registry    *prometheus.Registry
	lastRun     prometheus.Gauge
	success     prometheus.Gauge
	items       prometheus.Gauge
	promotional prometheus.Gauge
	duration    prometheus.Gauge
}

// NewRecorder creates a recorder with all gauges registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsdigest_last_run_timestamp_seconds",
			Help: "Unix time the last digest run started.",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsdigest_last_run_success",
			Help: "1 if the last digest run delivered successfully, 0 otherwise.",
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsdigest_digest_items",
			Help: "Number of items in the last digest.",
		}),
		promotional: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsdigest_digest_promotional_items",
			Help: "Number of items tagged as promotional in the last digest.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsdigest_last_run_duration_seconds",
			Help: "Wall time of the last digest run.",
		}),
	}

	r.registry.MustRegister(r.lastRun, r.success, r.items, r.promotional, r.duration)
	return r
}

// Observe sets the gauges from o.
func (r *Recorder) Observe(o Outcome) {
	r.lastRun.Set(float64(o.Started.Unix()))
	r.items.Set(float64(o.Items))
	r.promotional.Set(float64(o.Promotional))
	r.duration.Set(o.Duration.Seconds())

	if o.Err == nil {
		r.success.Set(1)
	} else {
		r.success.Set(0)
	}
}

// Gatherer exposes the registry, mostly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Push sends the current gauges to the Pushgateway at url under job,
// replacing what was pushed before. An empty url is a no-op.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}

	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
