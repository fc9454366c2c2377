package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/edoburu/docdata-reconciler/internal/domain"
)

var (
	// Reconciliation pass metrics
	reconciliationPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_passes_total",
		Help: "Total number of reconciliation passes",
	}, []string{
		"merchant", // merchant account name
		"result",   // ok, error
	})

	reconciliationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "reconciliation_pass_duration_seconds",
		Help: "Duration of one reconciliation pass including the transaction commit",
		// Passes are lock-bounded and short-lived; buckets top out early.
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{
		"merchant",
	})

	// Order status transition metrics
	orderStatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Total number of order status transitions",
	}, []string{
		"from",
		"to",
	})

	// Payment line upsert metrics
	paymentLineUpsertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_line_upserts_total",
		Help: "Total number of payment line writes",
	}, []string{
		"operation", // added, updated
	})

	// Data anomaly metrics. These mirror the soft-anomaly error logs: the
	// pass continues, but someone should look.
	reconciliationAnomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_anomalies_total",
		Help: "Total number of soft data anomalies detected during reconciliation",
	}, []string{
		"kind", // totals_without_payments, registered_total_mismatch, negative_payment_sum
	})
)

// RecordReconciliationPass records one completed (or failed) pass.
func RecordReconciliationPass(merchant, result string, d time.Duration) {
	reconciliationPassesTotal.WithLabelValues(merchant, result).Inc()
	reconciliationDuration.WithLabelValues(merchant).Observe(d.Seconds())
}

// RecordChangeEvent records the metric matching a committed change event.
func RecordChangeEvent(ev domain.ChangeEvent) {
	switch ev.Kind {
	case domain.EventPaymentAdded:
		paymentLineUpsertsTotal.WithLabelValues("added").Inc()
	case domain.EventPaymentUpdated:
		paymentLineUpsertsTotal.WithLabelValues("updated").Inc()
	case domain.EventOrderStatusChanged:
		orderStatusTransitionsTotal.WithLabelValues(string(ev.OldStatus), string(ev.NewStatus)).Inc()
	}
}

// RecordAnomaly counts a soft data anomaly.
func RecordAnomaly(kind string) {
	reconciliationAnomaliesTotal.WithLabelValues(kind).Inc()
}
