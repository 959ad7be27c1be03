// Package metrics holds Prometheus collectors for the graph ingester.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockgraph",
		Subsystem: "block_importer",
		Name:      "import_block_total",
		Help:      "Count of block imports by outcome.",
	}, []string{"network", "status"})

	importBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockgraph",
		Subsystem: "block_importer",
		Name:      "import_block_duration_seconds",
		Help:      "Duration of a single block transaction from begin to commit or rollback.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"network", "status"})

	importBlockTransactions = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockgraph",
		Subsystem: "block_importer",
		Name:      "block_transactions",
		Help:      "Number of transactions per imported block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"network"})

	existenceLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockgraph",
		Subsystem: "block_importer",
		Name:      "existence_lookups_total",
		Help:      "Account existence lookups split by cache hits and store queries.",
	}, []string{"network", "source"})

	roleChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockgraph",
		Subsystem: "block_importer",
		Name:      "role_changes_total",
		Help:      "Accounts relabeled from External to Contract.",
	}, []string{"network"})

	fetchBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockgraph",
		Subsystem: "follower_ingester",
		Name:      "fetch_block_total",
		Help:      "Count of ledger block fetches by outcome.",
	}, []string{"network", "status"})

	fetchBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockgraph",
		Subsystem: "follower_ingester",
		Name:      "fetch_block_duration_seconds",
		Help:      "Duration of fetching one block from the ledger.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	lastImportedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockgraph",
		Subsystem: "follower_ingester",
		Name:      "last_imported_block",
		Help:      "Highest block number committed to the graph.",
	}, []string{"network"})
)

// BlockImporter tracks metrics for the block import pipeline and its follower loop.
type BlockImporter struct {
	network string
}

// NewBlockImporter constructs a BlockImporter collector labeled with the network name.
func NewBlockImporter(network string) *BlockImporter {
	if network == "" {
		network = "unknown"
	}
	return &BlockImporter{network: network}
}

// ObserveImportBlock records the outcome of one block transaction.
func (m BlockImporter) ObserveImportBlock(err error, transactions int, started time.Time) {
	status := statusLabel(err)
	importBlockTotal.WithLabelValues(m.network, status).Inc()
	importBlockDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
	if err == nil {
		importBlockTransactions.WithLabelValues(m.network).Observe(float64(transactions))
	}
}

// ObserveExistenceLookup records whether an existence check was served from the block cache.
func (m BlockImporter) ObserveExistenceLookup(cached bool) {
	source := "store"
	if cached {
		source = "cache"
	}
	existenceLookupsTotal.WithLabelValues(m.network, source).Inc()
}

// ObserveRoleChange records an External to Contract relabel.
func (m BlockImporter) ObserveRoleChange() {
	roleChangesTotal.WithLabelValues(m.network).Inc()
}

// ObserveFetchBlock records a ledger fetch outcome and duration.
func (m BlockImporter) ObserveFetchBlock(err error, started time.Time) {
	status := statusLabel(err)
	fetchBlockTotal.WithLabelValues(m.network, status).Inc()
	fetchBlockDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
}

// SetLastImported publishes the last committed block number.
func (m BlockImporter) SetLastImported(number int64) {
	lastImportedBlock.WithLabelValues(m.network).Set(float64(number))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
