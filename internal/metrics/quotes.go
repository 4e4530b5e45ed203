package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Quote outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

// QuoteMetrics records how many quotes were computed and what they cost.
type QuoteMetrics struct {
	total     *prometheus.CounterVec
	unitPrice *prometheus.HistogramVec
}

// NewQuoteMetrics registers the quote metrics on the provided registerer.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_total",
		Help: "Quote requests by bag type and outcome.",
	}, []string{"bag_type", "outcome"})
	unitPrice := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_unit_price_cny",
		Help:    "Discounted per-bag price of computed quotes.",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 2, 5},
	}, []string{"bag_type"})
	reg.MustRegister(total, unitPrice)
	return &QuoteMetrics{total: total, unitPrice: unitPrice}
}

// ObserveQuote records a successfully priced quote.
func (m *QuoteMetrics) ObserveQuote(bagType string, unitPrice float64) {
	if m == nil || m.total == nil {
		return
	}
	bagType = normalizeLabel(bagType)
	m.total.WithLabelValues(bagType, OutcomeOK).Inc()
	m.unitPrice.WithLabelValues(bagType).Observe(unitPrice)
}

// IncRejected records a quote request refused before pricing.
func (m *QuoteMetrics) IncRejected(bagType string) {
	if m == nil || m.total == nil {
		return
	}
	m.total.WithLabelValues(normalizeLabel(bagType), OutcomeRejected).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
