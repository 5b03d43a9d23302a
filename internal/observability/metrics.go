package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the BookFinder service.
// Metrics are organized by subsystem: HTTP, analyses, ranking, and batches.
// All counters and histograms are registered via promauto for automatic
// registration with the default Prometheus registry.
type Metrics struct {
	// HTTPRequestsTotal counts HTTP requests, labeled by method, route, and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec

	// AnalysesCreated counts the total number of analyses stored.
	AnalysesCreated prometheus.Counter

	// AnalysesDuplicate counts insert attempts rejected by the batch/identifier uniqueness rule.
	AnalysesDuplicate prometheus.Counter

	// AnalysesDeleted counts analyses removed, labeled by delete path ("batch", "ids").
	AnalysesDeleted *prometheus.CounterVec

	// RankingQueries counts top-N ranking queries, labeled by strategy.
	RankingQueries *prometheus.CounterVec

	// RankingDuration observes ranking query duration in seconds, labeled by strategy.
	RankingDuration *prometheus.HistogramVec

	// OpportunityCounts counts threshold aggregation queries.
	OpportunityCounts prometheus.Counter

	// BatchesCreated counts the total number of batches created.
	BatchesCreated prometheus.Counter

	// BatchTransitions counts batch status transitions, labeled by from and to state.
	BatchTransitions *prometheus.CounterVec

	// BatchTransitionsRejected counts transition requests refused by the state machine.
	BatchTransitionsRejected prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),

		AnalysesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_created_total",
			Help:      "Total number of analyses stored",
		}),
		AnalysesDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_duplicate_total",
			Help:      "Total number of analysis inserts rejected as duplicates",
		}),
		AnalysesDeleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_deleted_total",
			Help:      "Total number of analyses deleted",
		}, []string{"path"}),

		RankingQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_queries_total",
			Help:      "Total number of top-N ranking queries",
		}, []string{"strategy"}),
		RankingDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_query_duration_seconds",
			Help:      "Top-N ranking query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"strategy"}),
		OpportunityCounts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opportunity_count_queries_total",
			Help:      "Total number of threshold aggregation queries",
		}),

		BatchesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_created_total",
			Help:      "Total number of batches created",
		}),
		BatchTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_transitions_total",
			Help:      "Total number of batch status transitions",
		}, []string{"from", "to"}),
		BatchTransitionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_transitions_rejected_total",
			Help:      "Total number of batch status transitions refused by the state machine",
		}),
	}
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordAnalysisCreated increments the analyses created counter.
func (m *Metrics) RecordAnalysisCreated() {
	m.AnalysesCreated.Inc()
}

// RecordAnalysisDuplicate increments the duplicate insert counter.
func (m *Metrics) RecordAnalysisDuplicate() {
	m.AnalysesDuplicate.Inc()
}

// RecordAnalysesDeleted adds to the delete counter for the given path.
func (m *Metrics) RecordAnalysesDeleted(path string, count int64) {
	m.AnalysesDeleted.WithLabelValues(path).Add(float64(count))
}

// RecordRankingQuery records one top-N query under the given strategy.
func (m *Metrics) RecordRankingQuery(strategy string, durationSeconds float64) {
	m.RankingQueries.WithLabelValues(strategy).Inc()
	m.RankingDuration.WithLabelValues(strategy).Observe(durationSeconds)
}

// RecordOpportunityCount increments the threshold aggregation counter.
func (m *Metrics) RecordOpportunityCount() {
	m.OpportunityCounts.Inc()
}

// RecordBatchCreated increments the batches created counter.
func (m *Metrics) RecordBatchCreated() {
	m.BatchesCreated.Inc()
}

// RecordBatchTransition records one accepted status transition.
func (m *Metrics) RecordBatchTransition(from, to string) {
	m.BatchTransitions.WithLabelValues(from, to).Inc()
}

// RecordBatchTransitionRejected increments the rejected transition counter.
func (m *Metrics) RecordBatchTransitionRejected() {
	m.BatchTransitionsRejected.Inc()
}
