package interview

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report interview activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionsStarted   prometheus.Counter
	sessionsFinished  *prometheus.CounterVec
	sessionsActive    prometheus.Gauge
	answers           *prometheus.CounterVec
	scores            prometheus.Histogram
	failures          *prometheus.CounterVec
	reportFallbacks   *prometheus.CounterVec
	persistenceErrors *prometheus.CounterVec
	callDuration      *prometheus.HistogramVec
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Collectors already registered under the same name are reused, so several
// managers may share one registry.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	const ns, sub = "interviewer", "sessions"

	return &Metrics{
		sessionsStarted: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "started_total",
			Help: "Interview sessions started.",
		})),
		sessionsFinished: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "finished_total",
			Help: "Interview sessions finished, by reason.",
		}, []string{"reason"})),
		sessionsActive: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub,
			Name: "active",
			Help: "Sessions held in memory.",
		})),
		answers: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "answers_total",
			Help: "Answers submitted, by phase.",
		}, []string{"phase"})),
		scores: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub,
			Name:    "answer_score",
			Help:    "Scores of evaluated answers.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		})),
		failures: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "service_failures_total",
			Help: "Failed generator and evaluator calls, by service.",
		}, []string{"service"})),
		reportFallbacks: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "report_fallbacks_total",
			Help: "Final reports built from static text, by cause.",
		}, []string{"cause"})),
		persistenceErrors: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub,
			Name: "persistence_errors_total",
			Help: "Failed store operations, by operation.",
		}, []string{"op"})),
		callDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub,
			Name:    "llm_call_duration_seconds",
			Help:    "Duration of generator, evaluator and report calls.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"service", "status"})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) sessionFinished(reason string) {
	if m == nil {
		return
	}
	m.sessionsFinished.WithLabelValues(reason).Inc()
}

func (m *Metrics) setActive(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

func (m *Metrics) answer(phase string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(phase).Inc()
}

func (m *Metrics) score(score int) {
	if m == nil {
		return
	}
	m.scores.Observe(float64(score))
}

func (m *Metrics) failure(service string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(service).Inc()
}

func (m *Metrics) reportFallback(cause string) {
	if m == nil {
		return
	}
	m.reportFallbacks.WithLabelValues(cause).Inc()
}

func (m *Metrics) persistenceError(op string) {
	if m == nil {
		return
	}
	m.persistenceErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) observeCall(service string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.callDuration.WithLabelValues(service, status).Observe(d.Seconds())
}
