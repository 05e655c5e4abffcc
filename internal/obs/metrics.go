package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics is a thin registerer wrapper, mirroring the teacher's
// metrics.Metrics: components register their own collectors against a
// shared prometheus.Registerer rather than reaching for package-level
// globals.
type Metrics struct {
	Registry prometheus.Registerer

	ValidatorRuns     *prometheus.CounterVec
	ValidatorDuration *prometheus.HistogramVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	Retries           *prometheus.CounterVec
	GateDecisions     *prometheus.CounterVec
	RoutedTrunks      *prometheus.CounterVec
}

// NewMetrics registers the pipeline's collectors against reg. reg may be
// prometheus.NewRegistry() for isolated tests or prometheus.DefaultRegisterer
// in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registry: reg,
		ValidatorRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_validator_runs_total",
			Help: "Validator executions by id and final state.",
		}, []string{"validator_id", "state"}),
		ValidatorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_validator_duration_seconds",
			Help:    "Validator execution wall time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"validator_id"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_cache_hits_total",
			Help: "Validator runs served from the content-hash cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_cache_misses_total",
			Help: "Validator runs not found in the content-hash cache.",
		}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_validator_retries_total",
			Help: "Validator retry attempts by id.",
		}, []string{"validator_id"}),
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_gate_decisions_total",
			Help: "Gate evaluations by phase and outcome.",
		}, []string{"phase", "can_advance"}),
		RoutedTrunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_routed_trunks_total",
			Help: "Trunks emitted by the routing service by system type.",
		}, []string{"system_type"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.ValidatorRuns, m.ValidatorDuration, m.CacheHits,
			m.CacheMisses, m.Retries, m.GateDecisions, m.RoutedTrunks,
		} {
			_ = reg.Register(c)
		}
	}
	return m
}
