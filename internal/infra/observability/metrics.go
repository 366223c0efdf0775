package observability

import (
	"time"

	"github.com/havensuites/concierge/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Turn outcomes, used as the "outcome" label on concierge_turns_total.
const (
	OutcomeSlotAck              = "slot_ack"
	OutcomeRecommendation       = "recommendation"
	OutcomeCanned               = "canned"
	OutcomeFallback             = "fallback"
	OutcomePredictorUnavailable = "predictor_unavailable"
)

// Metrics holds all Prometheus metrics for the concierge.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	turns           *prometheus.CounterVec
	slotsFilled     *prometheus.CounterVec
	sessionRetries  prometheus.Counter
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concierge_operation_duration_seconds",
				Help:    "Duration of operations (turns, rating calls).",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_external_errors_total",
				Help: "Total errors from external collaborators.",
			},
			[]string{"service"},
		),
		turns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_turns_total",
				Help: "Chat turns processed, by outcome.",
			},
			[]string{"outcome"},
		),
		slotsFilled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_slots_filled_total",
				Help: "Slots extracted from chat messages.",
			},
			[]string{"slot"},
		),
		sessionRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "concierge_session_conflicts_total",
				Help: "Turns re-run because the session changed underneath them.",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrTurn counts one processed turn.
func (m *Metrics) IncrTurn(outcome string) {
	m.turns.WithLabelValues(outcome).Inc()
}

// IncrSlot counts one extracted slot.
func (m *Metrics) IncrSlot(slot string) {
	m.slotsFilled.WithLabelValues(slot).Inc()
}

// IncrSessionConflict counts one optimistic-lock retry in the session store.
func (m *Metrics) IncrSessionConflict() {
	m.sessionRetries.Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// CacheHits reads the hit counter for one cache.
func (m *Metrics) CacheHits(cache string) float64 {
	return getCounterValue(m.cacheHits, cache)
}

// GetDialogueSnapshot returns the turn counters for GET /v1/metrics/dialogue.
func (m *Metrics) GetDialogueSnapshot() *domain.DialogueMetrics {
	acks := getCounterValue(m.turns, OutcomeSlotAck)
	recs := getCounterValue(m.turns, OutcomeRecommendation)
	canned := getCounterValue(m.turns, OutcomeCanned)
	fallbacks := getCounterValue(m.turns, OutcomeFallback)
	unavailable := getCounterValue(m.turns, OutcomePredictorUnavailable)

	total := acks + recs + canned + fallbacks + unavailable
	recRate, fallbackRate := float64(0), float64(0)
	if total > 0 {
		recRate = recs / total
		fallbackRate = fallbacks / total
	}

	return &domain.DialogueMetrics{
		TotalTurns:           int64(total),
		SlotAcks:             int64(acks),
		Recommendations:      int64(recs),
		CannedReplies:        int64(canned),
		Fallbacks:            int64(fallbacks),
		PredictorUnavailable: int64(unavailable),
		RecommendationRate:   recRate,
		FallbackRate:         fallbackRate,
		Period:               "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
