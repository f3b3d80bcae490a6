// Package jobs runs the scheduled background work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"rating-arena/internal/service"
)

// AutoClickJob periodically credits passive auto-click income to every
// account that bought the upgrade.
type AutoClickJob struct {
	progression *service.ProgressionService
	schedule    string
	cron        *cron.Cron
}

// NewAutoClickJob creates the accrual job on the given cron schedule.
func NewAutoClickJob(progression *service.ProgressionService, schedule string) *AutoClickJob {
	return &AutoClickJob{
		progression: progression,
		schedule:    schedule,
		cron:        cron.New(),
	}
}

// Start registers and launches the schedule.
func (j *AutoClickJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, j.run)
	if err != nil {
		return err
	}
	j.cron.Start()
	log.Info().Str("schedule", j.schedule).Msg("auto-click job started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *AutoClickJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("auto-click job stopped")
}

func (j *AutoClickJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := j.progression.AccrueAll(ctx); err != nil {
		log.Error().Err(err).Msg("auto-click sweep failed")
	}
}
