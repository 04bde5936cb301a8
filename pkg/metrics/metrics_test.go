package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestInvoiceMetricsExportsOutcomesAndTotals(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewInvoiceMetrics(reg)
	metrics.ObserveAttempt(OutcomeCreated, 120*time.Millisecond)
	metrics.ObserveAttempt(OutcomeInsufficientStock, 5*time.Millisecond)
	metrics.ObserveAttempt(OutcomeInsufficientStock, 5*time.Millisecond)
	metrics.AddCommitted(6, 42.5)
	metrics.IncDepleted()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "invoice_create_total", "outcome", OutcomeInsufficientStock); err != nil {
		t.Fatalf("fetch outcomes: %v", err)
	} else if got != 2 {
		t.Fatalf("expected insufficient_stock=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "invoice_create_duration_seconds", "outcome", OutcomeCreated); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got := fetchPlainCounter(mfs, "invoice_units_reserved_total"); got != 6 {
		t.Fatalf("expected units=6, got %f", got)
	}
	if got := fetchPlainCounter(mfs, "invoice_revenue_total"); got != 42.5 {
		t.Fatalf("expected revenue=42.5, got %f", got)
	}
	if got := fetchPlainCounter(mfs, "product_stock_depleted_total"); got != 1 {
		t.Fatalf("expected depleted=1, got %f", got)
	}
}

func TestOutboxMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	metrics.ObserveBatch(10 * time.Millisecond)
	metrics.IncPublished("invoice_created")
	metrics.IncFailed("invoice_created")
	metrics.IncDeadLettered("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_published_total", "event_type", "invoice_created"); err != nil || got != 1 {
		t.Fatalf("expected published=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_dead_lettered_total", "event_type", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected dead_lettered=1, got %f (%v)", got, err)
	}
}

func TestJobMetricsSplitsResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewJobMetrics(reg)
	metrics.Observe("outbox-retention", time.Millisecond, nil)
	metrics.Observe("outbox-retention", time.Millisecond, errors.New("boom"))
	metrics.Observe("outbox-retention", time.Millisecond, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "maintenance_job_runs_total", "result", "success"); err != nil || got != 2 {
		t.Fatalf("expected success=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "maintenance_job_runs_total", "result", "failure"); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f (%v)", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	invoices := NewInvoiceMetrics(nil)
	invoices.ObserveAttempt(OutcomeCreated, time.Second)
	invoices.AddCommitted(1, 1)
	invoices.IncDepleted()

	var outbox *OutboxMetrics
	outbox.IncPublished("x")
	outbox.ObserveBatch(time.Second)

	NewJobMetrics(nil).Observe("x", time.Second, nil)
}

func fetchPlainCounter(mfs []*dto.MetricFamily, name string) float64 {
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return -1
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
