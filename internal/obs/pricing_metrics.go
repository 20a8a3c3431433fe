package obs

import "github.com/prometheus/client_golang/prometheus"

// PricingMetrics counts engine outcomes seen by the quote service.
type PricingMetrics struct {
	EditsTotal     *prometheus.CounterVec
	SummariesTotal *prometheus.CounterVec
	SavesTotal     *prometheus.CounterVec
	DriftTotal     *prometheus.CounterVec
	DraftsActive   prometheus.Gauge
}

// NewPricingMetrics registers pricing collectors on reg, reusing collectors that
// were already registered under the same names.
func NewPricingMetrics(namespace string, reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PricingMetrics{
		EditsTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_edits_total",
			Help:      "Line item edits by field and resolution.",
		}, []string{"field", "resolution"})),
		SummariesTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_summaries_total",
			Help:      "Document summaries served by derivation mode.",
		}, []string{"mode"})),
		SavesTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_saves_total",
			Help:      "Document save attempts by outcome.",
		}, []string{"result"})),
		DriftTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_drift_total",
			Help:      "Saved documents audited against a recomputed summary, by result.",
		}, []string{"result"})),
		DraftsActive: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "document_drafts_open",
			Help:      "Drafts opened minus drafts saved or discarded by this process.",
		})),
	}
}

// ObserveEdit records one line edit. A nil receiver is a no-op.
func (m *PricingMetrics) ObserveEdit(field, resolution string) {
	if m == nil {
		return
	}
	m.EditsTotal.WithLabelValues(field, resolution).Inc()
}

// ObserveSummary records which derivation mode produced a summary.
func (m *PricingMetrics) ObserveSummary(mode string) {
	if m == nil {
		return
	}
	m.SummariesTotal.WithLabelValues(mode).Inc()
}

// ObserveSave records a save outcome such as "ok", "conflict" or "error".
func (m *PricingMetrics) ObserveSave(result string) {
	if m == nil {
		return
	}
	m.SavesTotal.WithLabelValues(result).Inc()
}

// ObserveDrift records an audit result, "match" or "drift".
func (m *PricingMetrics) ObserveDrift(result string) {
	if m == nil {
		return
	}
	m.DriftTotal.WithLabelValues(result).Inc()
}

// DraftOpened and DraftClosed track drafts held in the draft store.
func (m *PricingMetrics) DraftOpened() {
	if m == nil {
		return
	}
	m.DraftsActive.Inc()
}

func (m *PricingMetrics) DraftClosed() {
	if m == nil {
		return
	}
	m.DraftsActive.Dec()
}
