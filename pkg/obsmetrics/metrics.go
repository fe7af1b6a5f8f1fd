// Package obsmetrics exposes the engine's own Prometheus metrics — case
// outcomes, lock-pool occupancy, scheduler queue depth — via
// client_golang's registry/collector types. Grounded on the teacher's
// pkg/monitoring/prometheus/client.go and pkg/monitoring/collector/
// collector.go, which use the same two libraries (client_golang,
// common/model) to *query* an external Prometheus; here the same libraries
// are used the other way around, to *expose* the engine's own series,
// which is the role spec §9's metrics surface actually needs.
package obsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/model"
)

// Registry bundles every metric the engine publishes, registered against a
// private prometheus.Registry so multiple Runner instances in the same
// process (e.g. in tests) don't collide on the default global registry.
type Registry struct {
	reg *prometheus.Registry

	CaseResults   *prometheus.CounterVec
	CaseDuration  *prometheus.HistogramVec
	LockHeld      *prometheus.GaugeVec
	SchedulerSize prometheus.Gauge
}

// New creates and registers the engine's metric set.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		CaseResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caseforge",
			Name:      "case_results_total",
			Help:      "Count of finished cases by terminal status.",
		}, []string{"status"}),
		CaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "caseforge",
			Name:      "case_duration_seconds",
			Help:      "Wall-clock duration of a case's four-phase lifecycle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"case"}),
		LockHeld: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "caseforge",
			Name:      "resource_lock_held",
			Help:      "1 if a named resource is currently locked, 0 otherwise.",
		}, []string{"resource"}),
		SchedulerSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "caseforge",
			Name:      "scheduler_queue_depth",
			Help:      "Number of pending jobs in the event scheduler's heap.",
		}),
	}

	r.reg.MustRegister(r.CaseResults, r.CaseDuration, r.LockHeld, r.SchedulerSize)
	return r
}

// Gatherer exposes the underlying registry for an HTTP /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// SampleLabel renders a model.LabelSet the way common/model does, kept as
// the bridge type for any future ingestion of external Prometheus query
// results (the teacher's prometheus.Client QueryResult.Labels) alongside
// the engine's own emitted series.
func SampleLabel(name, value string) model.LabelSet {
	return model.LabelSet{model.LabelName(name): model.LabelValue(value)}
}
