// Package metrics содержит prometheus-метрики сервиса доступа.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/course-entitlement/internal/storage"
)

const namespace = "entitlement"

// Результаты обращения к кешу решений.
const (
	CacheHit    = "hit"
	CacheStale  = "stale"
	CacheMiss   = "miss"
	CacheBypass = "bypass"
)

// Metrics набор счётчиков и гистограмм сервиса.
type Metrics struct {
	decisions     *prometheus.CounterVec
	cacheResults  *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	invalidations *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Access decisions by reason code.",
		}, []string{"reason", "can_access"}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Decision cache lookups by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of loading snapshots from the store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidations_total",
			Help:      "Cache invalidations by scope.",
		}, []string{"scope"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_open",
			Help:      "1 when the store circuit breaker is not closed.",
		}, []string{"name"}),
	}
	reg.MustRegister(m.decisions, m.cacheResults, m.loadDuration, m.invalidations, m.breakerState)
	return m
}

// RecordDecision учитывает выданное решение.
func (m *Metrics) RecordDecision(reason string, canAccess bool) {
	allowed := "false"
	if canAccess {
		allowed = "true"
	}
	m.decisions.WithLabelValues(reason, allowed).Inc()
}

// RecordCache учитывает результат обращения к кешу.
func (m *Metrics) RecordCache(result string) {
	m.cacheResults.WithLabelValues(result).Inc()
}

// ObserveLoad фиксирует длительность загрузки снимков.
func (m *Metrics) ObserveLoad(d time.Duration, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	m.loadDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordInvalidation учитывает инвалидацию по области user, course, pair или global.
func (m *Metrics) RecordInvalidation(scope string) {
	m.invalidations.WithLabelValues(scope).Inc()
}

// SetBreakerOpen выставляет состояние предохранителя.
func (m *Metrics) SetBreakerOpen(name string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.breakerState.WithLabelValues(name).Set(v)
}
