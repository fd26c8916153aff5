// Package metrics exposes Prometheus collectors for the snapshot
// lifecycle workflows. Metrics are only served in daemon mode.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SnapshotsCreated counts snapshots successfully created by the
	// snap workflow.
	SnapshotsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapsentry_snapshots_created_total",
		Help: "Total number of snapshots created",
	})

	// SnapshotsDestroyed counts snapshots successfully destroyed by gc.
	SnapshotsDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapsentry_snapshots_destroyed_total",
		Help: "Total number of expired snapshots destroyed",
	})

	// DestroyFailures counts gc destroy attempts that failed.
	DestroyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapsentry_destroy_failures_total",
		Help: "Total number of snapshot destroy attempts that failed",
	})

	// GCRuns counts expiry workflow invocations.
	GCRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapsentry_gc_runs_total",
		Help: "Total number of gc workflow runs",
	})

	// TrackedDatasets reports how many datasets were tracked during
	// the most recent snap workflow run.
	TrackedDatasets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snapsentry_tracked_datasets",
		Help: "Number of datasets opted into snapshot management",
	})
)

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
