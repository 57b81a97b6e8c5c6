package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "inventory"

// InventoryMetrics records batch, gate and stock-level activity. A nil value
// or one built without a registerer is a no-op.
type InventoryMetrics struct {
	rows          *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	unlocks       *prometheus.CounterVec
	lowStock      prometheus.Gauge
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_rows_total",
		Help:      "Rows processed by import and reset batches.",
	}, []string{"operation", "result"})
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of import and reset batches in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	unlocks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unlock_attempts_total",
		Help:      "Passphrase submissions by outcome.",
	}, []string{"result"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "low_stock_products",
		Help:      "Products at or below their alert threshold at the last listing.",
	})
	reg.MustRegister(rows, batchDuration, unlocks, lowStock)
	return &InventoryMetrics{
		rows:          rows,
		batchDuration: batchDuration,
		unlocks:       unlocks,
		lowStock:      lowStock,
	}
}

// ObserveBatch records the row outcomes and duration of an import or reset.
func (m *InventoryMetrics) ObserveBatch(operation string, succeeded, failed int, duration time.Duration) {
	if m == nil || m.rows == nil {
		return
	}
	operation = normalizeLabel(operation)
	m.rows.WithLabelValues(operation, "ok").Add(float64(succeeded))
	m.rows.WithLabelValues(operation, "failed").Add(float64(failed))
	m.batchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *InventoryMetrics) IncUnlock(accepted bool) {
	if m == nil || m.unlocks == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.unlocks.WithLabelValues(result).Inc()
}

func (m *InventoryMetrics) SetLowStock(n int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
