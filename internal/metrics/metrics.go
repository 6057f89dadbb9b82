// Package metrics holds the Prometheus collectors of the service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// GuardOutcomes counts auth guard decisions by outcome.
var GuardOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tasker_auth_guard_requests_total",
		Help: "Total number of guarded requests by outcome",
	},
	[]string{"outcome"},
)

// LoginAttempts counts login attempts by result.
var LoginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tasker_login_attempts_total",
		Help: "Total number of login attempts by result",
	},
	[]string{"result"},
)

// SessionsIssued counts sessions created or rotated.
var SessionsIssued = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tasker_sessions_issued_total",
		Help: "Total number of sessions issued",
	},
)

// SessionsPurged counts expired sessions removed by the purge job.
var SessionsPurged = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tasker_sessions_purged_total",
		Help: "Total number of expired sessions purged",
	},
)

// DBPoolConns reports database pool connections by state.
var DBPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tasker_db_pool_connections",
		Help: "Database pool connections by state",
	},
	[]string{"state"},
)

// FeedConnections reports open task feed websocket connections.
var FeedConnections = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "tasker_feed_connections",
		Help: "Open task feed websocket connections",
	},
)

// Register registers all collectors with reg. Panics if registration fails.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(GuardOutcomes)
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(SessionsIssued)
	reg.MustRegister(SessionsPurged)
	reg.MustRegister(DBPoolConns)
	reg.MustRegister(FeedConnections)
}
