// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/metrics"
)

// purgeTimeout bounds a single purge run.
const purgeTimeout = time.Minute

// SessionPurger deletes expired sessions and reports how many were removed.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler removes expired sessions on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionPurger
}

// New creates a scheduler that purges sessions on spec, a standard cron
// expression or descriptor such as "@hourly".
func New(spec string, sessions SessionPurger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
	}
	if _, err := s.cron.AddFunc(spec, s.purge); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the schedule in its own goroutine.
func (s *Scheduler) Start() {
	log.Info().Msg("Starting session purge scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running purge to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped session purge scheduler")
}

// PurgeNow runs one purge immediately and returns the number of sessions
// removed.
func (s *Scheduler) PurgeNow(ctx context.Context) (int64, error) {
	n, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SessionsPurged.Add(float64(n))
	return n, nil
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.PurgeNow(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: failed to purge expired sessions")
		return
	}
	log.Info().Int64("purged", n).Msg("Scheduler: purged expired sessions")
}
