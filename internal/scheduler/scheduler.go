package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cmorgenfeld/Intellivest/internal/config"
	"github.com/cmorgenfeld/Intellivest/internal/pipeline"
)

// Scheduler triggers the daily analysis run on a cron spec.
type Scheduler struct {
	cron   *cron.Cron
	runner *pipeline.Runner
	cfg    config.SchedulerConfig
}

// New builds a scheduler around the run pipeline.
func New(runner *pipeline.Runner, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		cfg:    cfg,
	}
}

// Start registers the analysis job and starts the cron loop. The job runs
// until ctx is cancelled; overlapping runs are not scheduled because each
// fires from the same single-threaded cron goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.CronSpec, func() {
		if _, err := s.runner.Run(ctx, time.Now()); err != nil {
			log.Printf("Scheduled analysis run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Analysis scheduler started (spec: %q)", s.cfg.CronSpec)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	log.Println("Analysis scheduler stopped")
}
