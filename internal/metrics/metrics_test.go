package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums a counter family, optionally filtered by one label pair
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := true
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					matched = false
				}
			}
			if matched {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestNew_RegistersWithRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	assert.NotNil(t, m)

	// a second registration on the same registry must fail
	assert.Panics(t, func() { New(registry) })
}

func TestMetrics_Observe(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveIngest([]string{"Hot Lead", "Hot Lead", "No-Show"}, 12, 1, 2)
	assert.Equal(t, 1.0, counterValue(t, registry, "webinarwins_webinars_ingested_total", nil))
	assert.Equal(t, 2.0, counterValue(t, registry, "webinarwins_attendees_ingested_total", map[string]string{"tier": "Hot Lead"}))
	assert.Equal(t, 3.0, counterValue(t, registry, "webinarwins_attendees_ingested_total", nil))
	assert.Equal(t, 12.0, counterValue(t, registry, "webinarwins_chat_messages_ingested_total", nil))
	assert.Equal(t, 2.0, counterValue(t, registry, "webinarwins_csv_rows_skipped_total", map[string]string{"file": "chat"}))

	m.ObserveGeneratorCall(CallError, 0.2)
	m.ObserveGeneratorCall(CallSuccess, 1.4)
	m.ObserveRetry()
	m.ObserveTokens(850)
	assert.Equal(t, 1.0, counterValue(t, registry, "webinarwins_generator_calls_total", map[string]string{"outcome": CallError}))
	assert.Equal(t, 1.0, counterValue(t, registry, "webinarwins_generator_retries_total", nil))
	assert.Equal(t, 850.0, counterValue(t, registry, "webinarwins_generator_tokens_total", nil))

	m.ObserveResult(ResultSkipped, "Warm Lead")
	assert.Equal(t, 1.0, counterValue(t, registry, "webinarwins_generation_results_total",
		map[string]string{"result": ResultSkipped, "tier": "Warm Lead"}))

	m.ObserveSend("sent")
	assert.Equal(t, 1.0, counterValue(t, registry, "webinarwins_emails_sent_total", map[string]string{"status": "sent"}))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIngest([]string{"Hot Lead"}, 1, 0, 0)
		m.ObserveGeneratorCall(CallSuccess, 1)
		m.ObserveRetry()
		m.ObserveTokens(10)
		m.ObserveResult(ResultFailed, "Cold Lead")
		m.ObserveBatch(3)
		m.ObserveSend("sent")
	})
}
