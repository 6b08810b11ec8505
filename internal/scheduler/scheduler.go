package scheduler

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldkeeper/internal/logger"
)

// OnWork is one unit of scheduled work.
type OnWork func(ctx context.Context) error

// Job runs OnWork on a cron schedule. A tick that fires while the previous run is
// still active is skipped, never queued.
type Job struct {
	Cron   *cron.Cron
	OnWork OnWork

	logger    zerolog.Logger
	ctx       context.Context
	isRunning atomic.Bool
	skipped   atomic.Int64
}

// New registers work under spec, a standard five-field cron expression or an @descriptor.
func New(ctx context.Context, spec string, work OnWork) (*Job, error) {
	if work == nil {
		return nil, errors.New("work function cannot be nil")
	}

	job := &Job{
		Cron:   cron.New(),
		OnWork: work,
		logger: logger.GetForComponent("scheduler"),
		ctx:    ctx,
	}
	if _, err := job.Cron.AddFunc(spec, job.Run); err != nil {
		return nil, err
	}
	return job, nil
}

func (job *Job) Start() {
	job.logger.Info().Msg("Scheduler started")
	job.Cron.Start()
}

// Stop prevents new ticks and waits for a running job to finish.
func (job *Job) Stop() {
	<-job.Cron.Stop().Done()
	job.logger.Info().Msg("Scheduler stopped")
}

// Run executes one tick.
func (job *Job) Run() {
	if !job.isRunning.CompareAndSwap(false, true) {
		job.skipped.Add(1)
		job.logger.Warn().Msg("Previous run still active, skipping tick")
		return
	}
	defer job.isRunning.Store(false)

	if err := job.OnWork(job.ctx); err != nil {
		job.logger.Error().Err(err).Msg("Scheduled run failed")
	}
}

// Skipped returns how many ticks were dropped because a run was active.
func (job *Job) Skipped() int64 {
	return job.skipped.Load()
}
