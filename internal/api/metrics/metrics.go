// Package metrics defines the Prometheus metrics of the sync pipeline. It is
// the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default registry on import. Serve mode
// exposes them on /metrics; one-shot runs can dump them with WriteTextfile
// for the node exporter textfile collector.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/99minutos/glauth-sync/internal/core/domain"
)

const namespace = "glauth_sync"

// RunsTotal counts finished pipeline runs.
// Label:
//   - result: "success" or "failure"
var RunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Total number of sync runs, by result.",
	},
	[]string{"result"},
)

// RunErrorsTotal counts failed runs by the stage that failed.
// Label:
//   - reason: "template", "fetch", "store", "render", "publish" or "internal"
var RunErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "run_errors_total",
		Help:      "Total number of failed sync runs, by failing stage.",
	},
	[]string{"reason"},
)

var UIDsAssignedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uids_assigned_total",
		Help:      "Total number of uids handed out to new users.",
	},
)

var ConfigWritesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "config_writes_total",
		Help:      "Total number of times a changed configuration was published.",
	},
)

var UsersRendered = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "users_rendered",
		Help:      "Number of users in the last successfully published configuration.",
	},
)

var LastSuccessTimestamp = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful sync run.",
	},
)

// RunDuration measures end-to-end run time.
// Label:
//   - result: "success" or "failure"
var RunDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a sync run from template read to publish.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ObserveRun records the outcome of one run. run may be nil when the run
// never started.
func ObserveRun(run *domain.SyncRun, err error) {
	result := "success"
	if err != nil {
		result = "failure"
		RunErrorsTotal.WithLabelValues(Reason(err)).Inc()
	}
	RunsTotal.WithLabelValues(result).Inc()
	if run == nil {
		return
	}

	RunDuration.WithLabelValues(result).Observe(run.Duration().Seconds())
	if err != nil {
		return
	}
	UIDsAssignedTotal.Add(float64(len(run.Assigned)))
	if run.Changed {
		ConfigWritesTotal.Inc()
	}
	UsersRendered.Set(float64(run.UsersRendered))
	LastSuccessTimestamp.Set(float64(run.FinishedAt.Unix()))
}

// Reason maps a pipeline error to its failing stage.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTemplateRead):
		return "template"
	case errors.Is(err, domain.ErrFetchRequest), errors.Is(err, domain.ErrFetchDecode):
		return "fetch"
	case errors.Is(err, domain.ErrStoreRead), errors.Is(err, domain.ErrStoreDecode),
		errors.Is(err, domain.ErrStoreWrite), errors.Is(err, domain.ErrStoreEncode),
		errors.Is(err, domain.ErrUIDExhausted):
		return "store"
	case errors.Is(err, domain.ErrRender):
		return "render"
	case errors.Is(err, domain.ErrPublish):
		return "publish"
	default:
		return "internal"
	}
}

// WriteTextfile dumps the default registry to path in the text exposition
// format, replacing the file atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
