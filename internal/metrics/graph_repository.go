package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	graphRepositoryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockgraph",
		Subsystem: "graph_repository",
		Name:      "operations_total",
		Help:      "Count of graph store statements.",
	}, []string{"operation", "database", "status"})
	graphRepositoryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockgraph",
		Subsystem: "graph_repository",
		Name:      "operation_duration_seconds",
		Help:      "Duration of graph store statements.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"operation", "database", "status"})
)

// GraphRepository tracks metrics for Neo4j repository operations.
type GraphRepository struct {
	database string
}

// NewGraphRepository creates a GraphRepository metrics collector.
func NewGraphRepository(database string) *GraphRepository {
	if database == "" {
		database = "default"
	}
	return &GraphRepository{database: database}
}

// Observe records duration and status of a repository operation.
func (m GraphRepository) Observe(operation string, err error, started time.Time) {
	status := statusLabel(err)
	graphRepositoryRequestsTotal.WithLabelValues(operation, m.database, status).Inc()
	graphRepositoryRequestDuration.WithLabelValues(operation, m.database, status).Observe(time.Since(started).Seconds())
}
