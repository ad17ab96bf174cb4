// Package metrics содержит метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор коллекторов сервиса.
type Metrics struct {
	checkIns         *prometheus.CounterVec
	validationErrors prometheus.Counter
	textRefresh      *prometheus.CounterVec
	LockWait         prometheus.Histogram
}

// New создаёт коллекторы и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvira_checkins_total",
			Help: "Check-in attempts by outcome.",
		}, []string{"outcome"}),
		validationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kvira_validation_errors_total",
			Help: "Malformed ledger rows found while resolving memberships.",
		}),
		textRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kvira_text_refresh_total",
			Help: "Text catalog refreshes by result.",
		}, []string{"result"}),
		LockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kvira_ledger_lock_wait_seconds",
			Help:    "Time spent waiting for the ledger lock.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(m.checkIns, m.validationErrors, m.textRefresh, m.LockWait)
	return m
}

// CheckIn учитывает попытку отметиться.
func (m *Metrics) CheckIn(outcome string) {
	m.checkIns.WithLabelValues(outcome).Inc()
}

// ValidationErrors учитывает найденные ошибки данных.
func (m *Metrics) ValidationErrors(n int) {
	m.validationErrors.Add(float64(n))
}

// TextRefreshed учитывает обновление каталога текстов.
func (m *Metrics) TextRefreshed(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.textRefresh.WithLabelValues(result).Inc()
}
