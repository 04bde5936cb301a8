package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Invoice creation outcomes.
const (
	OutcomeCreated           = "created"
	OutcomeInvalid           = "invalid"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeError             = "error"
)

// InvoiceMetrics records invoice creation activity.
type InvoiceMetrics struct {
	duration  *prometheus.HistogramVec
	outcomes  *prometheus.CounterVec
	units     prometheus.Counter
	revenue   prometheus.Counter
	depletion prometheus.Counter
}

// NewInvoiceMetrics registers the invoice metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewInvoiceMetrics(reg prometheus.Registerer) *InvoiceMetrics {
	if reg == nil {
		return &InvoiceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoice_create_duration_seconds",
		Help:    "Duration of invoice creation attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_create_total",
		Help: "Invoice creation attempts by outcome.",
	}, []string{"outcome"})
	units := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invoice_units_reserved_total",
		Help: "Product units taken out of stock by committed invoices.",
	})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invoice_revenue_total",
		Help: "Sum of committed invoice totals.",
	})
	depletion := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "product_stock_depleted_total",
		Help: "Products whose stock reached zero through an invoice.",
	})
	reg.MustRegister(duration, outcomes, units, revenue, depletion)
	return &InvoiceMetrics{
		duration:  duration,
		outcomes:  outcomes,
		units:     units,
		revenue:   revenue,
		depletion: depletion,
	}
}

// ObserveAttempt records the duration and outcome of one creation attempt.
func (m *InvoiceMetrics) ObserveAttempt(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.duration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.outcomes.WithLabelValues(outcome).Inc()
}

// AddCommitted records the units and revenue of a committed invoice.
func (m *InvoiceMetrics) AddCommitted(units int, total float64) {
	if m == nil || m.units == nil {
		return
	}
	m.units.Add(float64(units))
	m.revenue.Add(total)
}

// IncDepleted counts a product that ran out of stock.
func (m *InvoiceMetrics) IncDepleted() {
	if m == nil || m.depletion == nil {
		return
	}
	m.depletion.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
