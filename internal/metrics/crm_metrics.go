package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Значения метки result.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// CRMMetrics содержит метрики операций изменения CRM и фоновых задач.
type CRMMetrics struct {
	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	bulkItems        *prometheus.CounterVec
	outboxEvents     *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
	lowStockProducts prometheus.Gauge
}

// NewCRMMetrics создаёт метрики в DefaultRegisterer.
func NewCRMMetrics() *CRMMetrics {
	return NewCRMMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCRMMetricsWithRegisterer создаёт метрики в заданном реестре (удобно для тестов).
func NewCRMMetricsWithRegisterer(registerer prometheus.Registerer) *CRMMetrics {
	return &CRMMetrics{
		mutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_mutations_total",
			Help: "Total number of CRM mutations by operation and result",
		}, []string{"operation", "result"}),
		mutationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "crm_mutation_duration_seconds",
			Help:    "Duration of CRM mutations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		bulkItems: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_bulk_customer_items_total",
			Help: "Total number of bulk customer items by result",
		}, []string{"result"}),
		outboxEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_outbox_events_enqueued_total",
			Help: "Total number of domain events written to the outbox",
		}, []string{"event_type"}),
		jobRuns: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "crm_job_runs_total",
			Help: "Total number of periodic job runs by job and result",
		}, []string{"job", "result"}),
		lowStockProducts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "crm_low_stock_products",
			Help: "Number of products found below the low stock threshold on the last sweep",
		}),
	}
}

// RecordMutation фиксирует результат и длительность операции изменения.
func (m *CRMMetrics) RecordMutation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, result).Inc()
	m.mutationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBulkItem учитывает один элемент пакетного создания.
func (m *CRMMetrics) RecordBulkItem(result string) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(result).Inc()
}

// RecordOutboxEvent учитывает событие, поставленное в outbox.
func (m *CRMMetrics) RecordOutboxEvent(eventType string) {
	if m == nil {
		return
	}
	m.outboxEvents.WithLabelValues(eventType).Inc()
}

// RecordJobRun учитывает запуск периодической задачи.
func (m *CRMMetrics) RecordJobRun(job, result string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}

// SetLowStockProducts сохраняет число товаров, найденных последним пополнением.
func (m *CRMMetrics) SetLowStockProducts(n int) {
	if m == nil {
		return
	}
	m.lowStockProducts.Set(float64(n))
}
