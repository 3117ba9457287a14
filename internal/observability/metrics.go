// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Rebuild metrics
	RebuildRunsTotal      *prometheus.CounterVec
	RebuildDuration       prometheus.Histogram
	TransactionsProcessed prometheus.Counter
	TransactionsRejected  prometheus.Counter

	// Placement metrics
	MembersPlaced     prometheus.Counter
	RootsAnchored     prometheus.Counter
	ReferentialGaps   prometheus.Counter
	PlacementFailures prometheus.Counter

	// Reward metrics
	RewardsEmitted prometheus.Counter
	RewardAmounts  *prometheus.CounterVec
	PendingAmounts *prometheus.GaugeVec

	// Health metrics
	LastSuccessfulRebuild prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "matrix_ledger"
	}

	return &Metrics{
		// Rebuild metrics
		RebuildRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "runs_total",
			Help:      "Total number of rebuild runs by status",
		}, []string{"status"}),
		RebuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "duration_seconds",
			Help:      "Rebuild run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		TransactionsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "transactions_processed_total",
			Help:      "Total number of transactions processed",
		}),
		TransactionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebuild",
			Name:      "transactions_rejected_total",
			Help:      "Total number of transactions rejected",
		}),

		// Placement metrics
		MembersPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "placement",
			Name:      "members_placed_total",
			Help:      "Total number of members anchored under a parent",
		}),
		RootsAnchored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "placement",
			Name:      "roots_anchored_total",
			Help:      "Total number of members anchored as tree roots",
		}),
		ReferentialGaps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "placement",
			Name:      "referential_gaps_total",
			Help:      "Total number of members whose referrer was absent at placement time",
		}),
		PlacementFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "placement",
			Name:      "failures_total",
			Help:      "Total number of members left unplaced",
		}),

		// Reward metrics
		RewardsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "emitted_total",
			Help:      "Total number of reward ledger entries emitted",
		}),
		RewardAmounts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "amounts_total",
			Help:      "Total instant reward amounts by currency",
		}, []string{"currency"}),
		PendingAmounts: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "rewards",
			Name:      "pending_amounts",
			Help:      "Reward amounts still pending after the latest rebuild, by currency",
		}, []string{"currency"}),

		// Health metrics
		LastSuccessfulRebuild: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_rebuild_timestamp",
			Help:      "Unix timestamp of last successful rebuild run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRebuildRun records one rebuild run outcome.
func RecordRebuildRun(status string, durationSeconds float64) {
	DefaultMetrics.RebuildRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RebuildDuration.Observe(durationSeconds)
}

// RecordTransactions adds the processed and rejected counts of a run.
func RecordTransactions(processed, rejected int) {
	DefaultMetrics.TransactionsProcessed.Add(float64(processed))
	DefaultMetrics.TransactionsRejected.Add(float64(rejected))
}

// RecordPlacements adds the placement counts of a run.
func RecordPlacements(placed, roots, gaps, failures int) {
	DefaultMetrics.MembersPlaced.Add(float64(placed))
	DefaultMetrics.RootsAnchored.Add(float64(roots))
	DefaultMetrics.ReferentialGaps.Add(float64(gaps))
	DefaultMetrics.PlacementFailures.Add(float64(failures))
}

// RecordRewardTotals records the ledger totals of a completed rebuild.
func RecordRewardTotals(rewards int, instantUSDT, instantMAT, pendingUSDT, pendingMAT float64) {
	DefaultMetrics.RewardsEmitted.Add(float64(rewards))
	DefaultMetrics.RewardAmounts.WithLabelValues("USDT").Add(instantUSDT)
	DefaultMetrics.RewardAmounts.WithLabelValues("MAT").Add(instantMAT)
	DefaultMetrics.PendingAmounts.WithLabelValues("USDT").Set(pendingUSDT)
	DefaultMetrics.PendingAmounts.WithLabelValues("MAT").Set(pendingMAT)
}
