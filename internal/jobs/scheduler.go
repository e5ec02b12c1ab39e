// Package jobs runs the background tasks (cron).
// scheduler.go expires duels nobody accepted, once an hour.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// ExpireDuelsSpec runs at minute 0 of every hour.
const ExpireDuelsSpec = "0 * * * *"

// DuelExpirer closes pending duels older than their TTL.
type DuelExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// Scheduler runs the background tasks.
type Scheduler struct {
	cron  *cron.Cron
	duels DuelExpirer // nil: duels disabled, nothing to schedule
}

// NewScheduler creates a scheduler running in the bot's zone.
func NewScheduler(duels DuelExpirer, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:  cron.New(cron.WithLocation(loc)),
		duels: duels,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.duels != nil {
		if _, err := s.cron.AddFunc(ExpireDuelsSpec, func() { s.expireDuels(ctx) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}

func (s *Scheduler) expireDuels(ctx context.Context) {
	log.Debug("[CRON] Expiring stale duels")
	if _, err := s.duels.ExpireStale(ctx); err != nil {
		log.WithError(err).Error("[CRON] Duel expiry failed")
	}
}
