package generator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for generator traffic and chapter
// outcomes.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	TokensTotal     *prometheus.CounterVec
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	ChaptersTotal   *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abridge_generator_requests_total",
			Help: "Total generation requests issued, by stage.",
		},
		[]string{"stage"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "abridge_generator_request_duration_seconds",
			Help:    "Latency of generator requests.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)
	tokens := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abridge_generator_tokens_total",
			Help: "Observed tokens consumed, by direction.",
		},
		[]string{"direction"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "abridge_generator_retries_total",
			Help: "Total retry attempts scheduled against the generator.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abridge_generator_errors_total",
			Help: "Total generator errors by classified type.",
		},
		[]string{"error_type"},
	)
	chapters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abridge_chapters_total",
			Help: "Chapters processed, by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(requests, requestDuration, tokens, retries, errorsTotal, chapters)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		TokensTotal:     tokens,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
		ChaptersTotal:   chapters,
	}
}

// IncRequest increments the request counter for a stage.
func (m *Metrics) IncRequest(stage string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(stage).Inc()
}

// ObserveDuration records a generator request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddTokens records observed token usage.
func (m *Metrics) AddTokens(input, output int) {
	if m == nil {
		return
	}
	m.TokensTotal.WithLabelValues("input").Add(float64(input))
	m.TokensTotal.WithLabelValues("output").Add(float64(output))
}

// IncRetries increments the retry counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the error counter for a classified type.
func (m *Metrics) IncError(err error) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorTypeLabel(err)).Inc()
}

// IncChapter increments the chapter outcome counter.
func (m *Metrics) IncChapter(outcome string) {
	if m == nil {
		return
	}
	m.ChaptersTotal.WithLabelValues(outcome).Inc()
}
