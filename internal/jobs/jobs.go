package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionPurger deletes expired sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance tasks.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// NewScheduler registers the expired-session purge on spec (a cron expression
// or descriptor such as "@every 1h").
func NewScheduler(spec string, purger SessionPurger, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger))),
		log:  logger,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.purge(purger) }); err != nil {
		return nil, fmt.Errorf("schedule session purge: %w", err)
	}
	return s, nil
}

func (s *Scheduler) purge(purger SessionPurger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session purge failed")
		return
	}
	s.log.Info().Int64("deleted", n).Msg("expired sessions purged")
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
