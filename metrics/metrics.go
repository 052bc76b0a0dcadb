// Package metrics exposes Prometheus collectors for the pipeline and
// its database connection pool.
package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Classification path labels for AnalysesTotal
const (
	PathAI        = "ai"
	PathHeuristic = "heuristic"
)

var (
	// AnalysesTotal counts completed link analyses by classification path
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkbox_analyses_total",
		Help: "Completed link analyses by classification path.",
	}, []string{"path"})

	// FetchDegradations counts content fetches that fell back to a URL-only stub
	FetchDegradations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkbox_fetch_degradations_total",
		Help: "Content fetches that degraded to a URL-only stub.",
	})
)

// DatabaseMetrics publishes connection pool statistics for a service
type DatabaseMetrics struct {
	open  prometheus.Gauge
	inUse prometheus.Gauge
	idle  prometheus.Gauge
}

// NewDatabaseMetrics creates and registers pool gauges labeled with the
// owning service name
func NewDatabaseMetrics(service string) *DatabaseMetrics {
	labels := prometheus.Labels{"service": service}
	return &DatabaseMetrics{
		open: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "linkbox_db_open_connections",
			Help:        "Open database connections.",
			ConstLabels: labels,
		}),
		inUse: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "linkbox_db_in_use_connections",
			Help:        "Database connections currently in use.",
			ConstLabels: labels,
		}),
		idle: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "linkbox_db_idle_connections",
			Help:        "Idle database connections.",
			ConstLabels: labels,
		}),
	}
}

// UpdateDBStats refreshes the gauges from the pool's current stats
func (m *DatabaseMetrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.open.Set(float64(stats.OpenConnections))
	m.inUse.Set(float64(stats.InUse))
	m.idle.Set(float64(stats.Idle))
}
