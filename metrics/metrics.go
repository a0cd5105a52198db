package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type BotMetrics interface {
	// IncEvent counts chat updates by kind: text, button, unsupported.
	IncEvent(kind string)
	// IncReportLookup counts report fetches by outcome: found, not_found, error.
	IncReportLookup(status string)
	// IncGeneration counts generation requests by outcome: requested, error.
	IncGeneration(status string)
	// IncPoll counts finished readiness polls by outcome: ready, timeout, cancelled.
	IncPoll(outcome string)

	SetActivePolls(total int)
	SetSessions(total int64)
	AddUptime(float64)
}

// BotAndProcessMetrics contains the instrumented metrics of the bot
type BotAndProcessMetrics struct {
	uptime prometheus.Counter

	numEvents        *prometheus.CounterVec
	numReportLookups *prometheus.CounterVec
	numGenerations   *prometheus.CounterVec
	numPolls         *prometheus.CounterVec

	activePolls prometheus.Gauge
	sessions    prometheus.Gauge
}

const botNamespace = "ercx_bot"

func NewBotMetrics(reg prometheus.Registerer) *BotAndProcessMetrics {
	return &BotAndProcessMetrics{
		uptime: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: botNamespace,
				Name:      "uptime_milliseconds_total",
				Help:      "The elapse time in milliseconds since the bot is booted",
			}),

		numEvents: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: botNamespace,
				Name:      "num_events_total",
				Help:      "The number of chat updates received, by kind",
			}, []string{"kind"}),

		numReportLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: botNamespace,
				Name:      "num_report_lookups_total",
				Help:      "The number of report lookups sent to ERCx, by outcome",
			}, []string{"status"}),

		numGenerations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: botNamespace,
				Name:      "num_report_generations_total",
				Help:      "The number of report generations requested from ERCx, by outcome",
			}, []string{"status"}),

		numPolls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: botNamespace,
				Name:      "num_readiness_polls_total",
				Help:      "The number of finished readiness polls, by outcome. A growing timeout count means ERCx is slow to produce reports",
			}, []string{"outcome"}),

		activePolls: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: botNamespace,
				Name:      "active_polls",
				Help:      "The number of reports the bot is currently waiting for",
			}),

		sessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: botNamespace,
				Name:      "sessions",
				Help:      "The number of stored user sessions",
			}),
	}
}

func (m *BotAndProcessMetrics) IncEvent(kind string) {
	m.numEvents.WithLabelValues(kind).Inc()
}

func (m *BotAndProcessMetrics) IncReportLookup(status string) {
	m.numReportLookups.WithLabelValues(status).Inc()
}

func (m *BotAndProcessMetrics) IncGeneration(status string) {
	m.numGenerations.WithLabelValues(status).Inc()
}

func (m *BotAndProcessMetrics) IncPoll(outcome string) {
	m.numPolls.WithLabelValues(outcome).Inc()
}

func (m *BotAndProcessMetrics) SetActivePolls(total int) {
	m.activePolls.Set(float64(total))
}

func (m *BotAndProcessMetrics) SetSessions(total int64) {
	m.sessions.Set(float64(total))
}

func (m *BotAndProcessMetrics) AddUptime(total float64) {
	m.uptime.Add(total)
}
