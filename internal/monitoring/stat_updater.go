// Package monitoring periodically samples runtime state into metrics.
package monitoring

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/metrics"
)

// DefaultInterval is how often stats are sampled.
const DefaultInterval = 15 * time.Second

// saturationCooldown limits how often a saturated pool is reported.
const saturationCooldown = 15 * time.Minute

// PoolStats is a snapshot of the database pool.
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
	Max      int32
}

// PoolStatsFunc returns the current pool snapshot.
type PoolStatsFunc func() PoolStats

// FromPool samples a pgx pool.
func FromPool(pool *pgxpool.Pool) PoolStatsFunc {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired: s.AcquiredConns(),
			Idle:     s.IdleConns(),
			Total:    s.TotalConns(),
			Max:      s.MaxConns(),
		}
	}
}

// ConnectionCounter reports open live feed connections.
type ConnectionCounter interface {
	Connections() int64
}

// StatUpdater is responsible for periodically sampling pool and websocket
// stats into gauges.
type StatUpdater struct {
	pool      PoolStatsFunc
	feed      ConnectionCounter
	interval  time.Duration
	done      chan struct{}
	stopped   chan struct{}
	now       func() time.Time
	lastAlert time.Time
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(pool PoolStatsFunc, feed ConnectionCounter, interval time.Duration) *StatUpdater {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &StatUpdater{
		pool:     pool,
		feed:     feed,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		now:      time.Now,
	}
}

// Run starts the periodic updates and returns after Stop.
func (su *StatUpdater) Run() {
	defer close(su.stopped)
	log.Info().Dur("interval", su.interval).Msg("Starting background stat updater...")
	ticker := time.NewTicker(su.interval)
	defer ticker.Stop()

	// Run once immediately on start
	su.update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-ticker.C:
			su.update()
		}
	}
}

// Stop halts the periodic updates and waits for Run to return.
func (su *StatUpdater) Stop() {
	close(su.done)
	<-su.stopped
}

func (su *StatUpdater) update() {
	stats := su.pool()
	metrics.DBPoolConns.WithLabelValues("acquired").Set(float64(stats.Acquired))
	metrics.DBPoolConns.WithLabelValues("idle").Set(float64(stats.Idle))
	metrics.DBPoolConns.WithLabelValues("total").Set(float64(stats.Total))
	metrics.FeedConnections.Set(float64(su.feed.Connections()))

	su.checkSaturation(stats)
}

// checkSaturation warns when every pooled connection is in use.
func (su *StatUpdater) checkSaturation(stats PoolStats) {
	if stats.Max == 0 || stats.Acquired < stats.Max {
		return
	}
	now := su.now()
	if !su.lastAlert.IsZero() && now.Sub(su.lastAlert) < saturationCooldown {
		return
	}
	su.lastAlert = now
	log.Warn().Int32("acquired", stats.Acquired).Int32("max", stats.Max).Msg("StatUpdater: database pool saturated, requests are waiting for connections")
}
