package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the rating engine, ingestion and prediction API

var (
	// Game-log provider metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_elo_api_calls_total",
			Help: "Total number of game-log provider calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nba_elo_api_call_duration_seconds",
			Help:    "Duration of game-log provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_elo_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nba_elo_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nba_elo_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nba_elo_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Store metrics
	StoreSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_elo_store_saves_total",
			Help: "Total number of ratings document saves",
		},
		[]string{"backend", "status"},
	)

	StoreSaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nba_elo_store_save_duration_seconds",
			Help:    "Duration of ratings document saves in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"backend"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nba_elo_cache_hits_total",
			Help: "Total number of prediction cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nba_elo_cache_misses_total",
			Help: "Total number of prediction cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nba_elo_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Ingestion metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_elo_sync_operations_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"mode", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nba_elo_sync_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	GamesAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nba_elo_games_applied_total",
			Help: "Total number of games applied to ratings",
		},
	)

	MatchupsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nba_elo_matchups_rejected_total",
			Help: "Total number of games dropped for not having exactly two rows",
		},
	)

	TeamsRated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nba_elo_teams_rated",
			Help: "Number of teams with a rating",
		},
	)

	LastGameDate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nba_elo_last_game_date_timestamp",
			Help: "Date of the newest applied game as a unix timestamp",
		},
	)

	// HTTP API metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_elo_http_requests_total",
			Help: "Total number of prediction API requests",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nba_elo_http_request_duration_seconds",
			Help:    "Duration of prediction API requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nba_elo_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nba_elo_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nba_elo_last_successful_sync_timestamp",
			Help: "Timestamp of last successful ingestion run",
		},
	)
)

// RecordAPICall records a game-log provider call
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, status).Inc()
	DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// RecordStoreSave records a ratings document save
func RecordStoreSave(backend, status string, duration float64) {
	StoreSavesTotal.WithLabelValues(backend, status).Inc()
	StoreSaveDuration.WithLabelValues(backend).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordSync records an ingestion run
func RecordSync(mode, status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(mode, status).Inc()
	SyncDuration.WithLabelValues(mode).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.SetToCurrentTime()
	}
}

// RecordGamesApplied adds to the applied games counter
func RecordGamesApplied(n int) {
	GamesAppliedTotal.Add(float64(n))
}

// RecordMatchupsRejected adds to the rejected games counter
func RecordMatchupsRejected(n int) {
	MatchupsRejectedTotal.Add(float64(n))
}

// RecordHTTPRequest records a prediction API request
func RecordHTTPRequest(route, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}

// UpdateRatingStats updates rating store gauges
func UpdateRatingStats(teams int, lastGameDate time.Time) {
	TeamsRated.Set(float64(teams))
	if !lastGameDate.IsZero() {
		LastGameDate.Set(float64(lastGameDate.Unix()))
	}
}
