// Package metrics provides Prometheus metrics for ingestion, generation and delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "webinarwins"

// Generator call outcomes
const (
	CallSuccess    = "success"
	CallError      = "error"
	CallParseError = "parse_error"
)

// Per-attendee batch outcomes
const (
	ResultSuccess          = "success"
	ResultFailed           = "failed"
	ResultFailedValidation = "failed_validation"
	ResultSkipped          = "skipped"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is a no-op.
type Metrics struct {
	// Ingest metrics
	WebinarsIngested     prometheus.Counter
	AttendeesIngested    *prometheus.CounterVec
	ChatMessagesIngested prometheus.Counter
	SkippedRows          *prometheus.CounterVec

	// Generation metrics
	GeneratorCalls    *prometheus.CounterVec
	GeneratorRetries  prometheus.Counter
	GeneratorLatency  prometheus.Histogram
	TokensConsumed    prometheus.Counter
	GenerationResults *prometheus.CounterVec
	BatchDuration     prometheus.Histogram

	// Delivery metrics
	EmailsSent *prometheus.CounterVec
}

// New creates all metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WebinarsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webinars_ingested_total",
			Help:      "Total number of webinar uploads ingested",
		}),
		AttendeesIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendees_ingested_total",
			Help:      "Total number of attendees ingested by engagement tier",
		}, []string{"tier"}),
		ChatMessagesIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_ingested_total",
			Help:      "Total number of chat messages ingested",
		}),
		SkippedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_rows_skipped_total",
			Help:      "CSV rows skipped for missing required fields",
		}, []string{"file"}),
		GeneratorCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_calls_total",
			Help:      "Calls to the text generator by outcome",
		}, []string{"outcome"}),
		GeneratorRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_retries_total",
			Help:      "Generator calls retried after a failure",
		}),
		GeneratorLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_call_duration_seconds",
			Help:      "Latency of a single generator call",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		TokensConsumed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_tokens_total",
			Help:      "Tokens consumed by accepted generator responses",
		}),
		GenerationResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_results_total",
			Help:      "Per-attendee outcomes of batch email generation",
		}, []string{"result", "tier"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_batch_duration_seconds",
			Help:      "Duration of a batch generation run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		EmailsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Follow-up emails handed to SendGrid by status",
		}, []string{"status"}),
	}
}

// ObserveIngest records one ingested webinar
func (m *Metrics) ObserveIngest(tiers []string, chatMessages, skippedAttendees, skippedChat int) {
	if m == nil {
		return
	}
	m.WebinarsIngested.Inc()
	for _, tier := range tiers {
		m.AttendeesIngested.WithLabelValues(tier).Inc()
	}
	m.ChatMessagesIngested.Add(float64(chatMessages))
	m.SkippedRows.WithLabelValues("attendance").Add(float64(skippedAttendees))
	m.SkippedRows.WithLabelValues("chat").Add(float64(skippedChat))
}

// ObserveGeneratorCall records one generator call and its latency
func (m *Metrics) ObserveGeneratorCall(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.GeneratorCalls.WithLabelValues(outcome).Inc()
	m.GeneratorLatency.Observe(seconds)
}

// ObserveRetry records one retried generator call
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.GeneratorRetries.Inc()
}

// ObserveTokens records tokens consumed by an accepted response
func (m *Metrics) ObserveTokens(tokens int) {
	if m == nil {
		return
	}
	m.TokensConsumed.Add(float64(tokens))
}

// ObserveResult records a per-attendee batch outcome
func (m *Metrics) ObserveResult(result, tier string) {
	if m == nil {
		return
	}
	m.GenerationResults.WithLabelValues(result, tier).Inc()
}

// ObserveBatch records the duration of a batch run
func (m *Metrics) ObserveBatch(seconds float64) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(seconds)
}

// ObserveSend records one delivery attempt
func (m *Metrics) ObserveSend(status string) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(status).Inc()
}
