// Package metrics records the outcome of a run and optionally pushes it to a
// Prometheus Pushgateway, since a CLI run is too short-lived to be scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the Pushgateway job name.
const DefaultJob = "tokenkeeper"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDryRun  = "dry_run"
)

// Recorder holds the run metrics in a private registry.
type Recorder struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	duration     prometheus.Histogram
	tokenExpiry  prometheus.Gauge
	lastSuccess  prometheus.Gauge
	tokenChanges *prometheus.CounterVec
}

// NewRecorder creates a recorder with all metrics registered.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenkeeper_runs_total",
				Help: "Total number of sync runs by decided action and outcome",
			},
			[]string{"action", "outcome"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tokenkeeper_run_duration_seconds",
				Help:    "Duration of sync runs in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		tokenExpiry: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tokenkeeper_token_expiry_timestamp_seconds",
				Help: "Expiry date of the publish token as a Unix timestamp",
			},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "tokenkeeper_last_success_timestamp_seconds",
				Help: "Unix timestamp of the last successful sync run",
			},
		),
		tokenChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenkeeper_token_writes_total",
				Help: "Token and variable writes performed",
			},
			[]string{"kind", "write"},
		),
	}
}

// Registry returns the registry metrics are recorded in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordRun records one finished run.
func (r *Recorder) RecordRun(action, outcome string, duration time.Duration, finished time.Time) {
	if action == "" {
		action = "none"
	}
	r.runs.WithLabelValues(action, outcome).Inc()
	r.duration.Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		r.lastSuccess.Set(float64(finished.Unix()))
	}
}

// RecordWrite counts one token ("token") or variable ("variable") write.
func (r *Recorder) RecordWrite(kind, write string) {
	if write == "" {
		return
	}
	r.tokenChanges.WithLabelValues(kind, write).Inc()
}

// SetTokenExpiry records the token's expiry date (YYYY-MM-DD). Malformed
// dates are ignored.
func (r *Recorder) SetTokenExpiry(expiresAt string) {
	t, err := time.Parse(time.DateOnly, expiresAt)
	if err != nil {
		return
	}
	r.tokenExpiry.Set(float64(t.Unix()))
}

// Push sends all metrics to the Pushgateway at url, grouped by project.
func (r *Recorder) Push(ctx context.Context, url, job, project string) error {
	if job == "" {
		job = DefaultJob
	}

	pusher := push.New(url, job).Gatherer(r.registry)
	if project != "" {
		pusher = pusher.Grouping("project", project)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
