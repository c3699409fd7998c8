package electionmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ElectionMetrics records façade operations, sweeps and ballot outcomes.
type ElectionMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	RecordSweepRun(ctx context.Context, sweep string, examined, acted, failed int)
	RecordBallotSubmitted(ctx context.Context, system string, accepted bool)
}

// PrometheusMetrics implements ElectionMetrics on a Prometheus registry.
type PrometheusMetrics struct {
	attempts       *prometheus.CounterVec
	successes      *prometheus.CounterVec
	failures       *prometheus.CounterVec
	durations      *prometheus.HistogramVec
	sweepRuns      *prometheus.CounterVec
	sweepElections *prometheus.CounterVec
	ballots        *prometheus.CounterVec
}

// NewPrometheus registers the election collectors on reg.
func NewPrometheus(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elections", Name: "operation_attempts_total",
			Help: "Election operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elections", Name: "operation_success_total",
			Help: "Election operations that finished without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elections", Name: "operation_failures_total",
			Help: "Election operations that failed with an infrastructure error or panic.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "elections", Name: "operation_duration_seconds",
			Help:    "Election operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elections", Name: "sweep_runs_total",
			Help: "Completed sweep passes.",
		}, []string{"sweep"}),
		sweepElections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elections", Name: "sweep_elections_total",
			Help: "Elections handled by sweeps, by outcome.",
		}, []string{"sweep", "outcome"}),
		ballots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elections", Name: "ballots_total",
			Help: "Ballot submissions, by voting system and outcome.",
		}, []string{"system", "outcome"}),
	}
	for _, c := range []prometheus.Collector{m.attempts, m.successes, m.failures, m.durations, m.sweepRuns, m.sweepElections, m.ballots} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordSweepRun(_ context.Context, sweep string, examined, acted, failed int) {
	m.sweepRuns.WithLabelValues(sweep).Inc()
	m.sweepElections.WithLabelValues(sweep, "examined").Add(float64(examined))
	m.sweepElections.WithLabelValues(sweep, "acted").Add(float64(acted))
	m.sweepElections.WithLabelValues(sweep, "failed").Add(float64(failed))
}

func (m *PrometheusMetrics) RecordBallotSubmitted(_ context.Context, system string, accepted bool) {
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.ballots.WithLabelValues(system, outcome).Inc()
}

// Noop discards every measurement.
type Noop struct{}

// NewNoop returns metrics that record nothing.
func NewNoop() ElectionMetrics { return Noop{} }

func (Noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (Noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (Noop) RecordOperationFailure(context.Context, string, string)                 {}
func (Noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (Noop) RecordSweepRun(context.Context, string, int, int, int)                  {}
func (Noop) RecordBallotSubmitted(context.Context, string, bool)                    {}
