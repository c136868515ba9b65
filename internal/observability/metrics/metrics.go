package metrics

import "github.com/prometheus/client_golang/prometheus"

// RealtimeMetrics exposes counters/gauges for table mirror subscriptions.
type RealtimeMetrics struct {
	eventsApplied        *prometheus.CounterVec
	reconnectsScheduled  *prometheus.CounterVec
	connected            *prometheus.GaugeVec
}

func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	m := &RealtimeMetrics{
		eventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospectpulse",
			Subsystem: "realtime",
			Name:      "events_applied_total",
			Help:      "Change events applied to local table mirrors",
		}, []string{"table", "event_type"}),
		reconnectsScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospectpulse",
			Subsystem: "realtime",
			Name:      "reconnects_scheduled_total",
			Help:      "Reconnect attempts scheduled after channel failures",
		}, []string{"table"}),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "prospectpulse",
			Subsystem: "realtime",
			Name:      "connected",
			Help:      "Whether the table subscription is live (1) or down (0)",
		}, []string{"table"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsApplied, m.reconnectsScheduled, m.connected)
	return m
}

func (m *RealtimeMetrics) ObserveEventApplied(table, eventType string) {
	if m == nil {
		return
	}
	m.eventsApplied.WithLabelValues(table, eventType).Inc()
}

func (m *RealtimeMetrics) ObserveReconnectScheduled(table string) {
	if m == nil {
		return
	}
	m.reconnectsScheduled.WithLabelValues(table).Inc()
}

func (m *RealtimeMetrics) ObserveConnected(table string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1.0
	}
	m.connected.WithLabelValues(table).Set(v)
}

// DispositionMetrics counts disposition writes by type and call path.
type DispositionMetrics struct {
	created *prometheus.CounterVec
}

func NewDispositionMetrics(reg prometheus.Registerer) *DispositionMetrics {
	m := &DispositionMetrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospectpulse",
			Subsystem: "dispositions",
			Name:      "created_total",
			Help:      "Dispositions persisted, by type and call path",
		}, []string{"disposition_type", "path"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.created)
	return m
}

func (m *DispositionMetrics) ObserveCreated(dispositionType, path string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(dispositionType, path).Inc()
}

// EnrichmentMetrics counts enrichment jobs and credit allocations.
type EnrichmentMetrics struct {
	jobs    *prometheus.CounterVec
	credits *prometheus.CounterVec
}

func NewEnrichmentMetrics(reg prometheus.Registerer) *EnrichmentMetrics {
	m := &EnrichmentMetrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospectpulse",
			Subsystem: "enrichment",
			Name:      "jobs_total",
			Help:      "Enrichment jobs processed, by outcome",
		}, []string{"status"}),
		credits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prospectpulse",
			Subsystem: "enrichment",
			Name:      "credits_total",
			Help:      "Credit allocations, by action",
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.jobs, m.credits)
	return m
}

func (m *EnrichmentMetrics) ObserveJob(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
}

func (m *EnrichmentMetrics) ObserveCredit(action string) {
	if m == nil {
		return
	}
	m.credits.WithLabelValues(action).Inc()
}
