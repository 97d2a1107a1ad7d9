// Package scheduler repeats scraping runs on a cron schedule so the keyword
// stores keep growing between manual runs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one scheduled run. ctx is the context given to Start.
type Task func(ctx context.Context)

// Scheduler wraps robfig/cron. Ticks that fire while the previous run is
// still going are skipped.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	chain    cron.Chain
	logger   *slog.Logger
	//immediate runs started outside the cron loop
	running sync.WaitGroup
}

// New parses spec (standard five-field cron or descriptors like "@every 6h").
func New(spec string, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	logger = logger.With("component", "scheduler")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))

	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cronLogger)),
		schedule: schedule,
		spec:     spec,
		chain:    cron.NewChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		logger:   logger,
	}, nil
}

// Start registers task and starts the cron loop. With runNow the task also
// runs once immediately, in the background, sharing the overlap guard with
// the scheduled ticks.
func (s *Scheduler) Start(ctx context.Context, task Task, runNow bool) {
	job := s.chain.Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		s.logger.Info("scheduled run started")
		task(ctx)
	}))

	s.cron.Schedule(s.schedule, job)
	s.cron.Start()
	s.logger.Info("cron started", "spec", s.spec, "next", s.schedule.Next(s.now()))

	if runNow {
		s.running.Add(1)
		go func() {
			defer s.running.Done()
			job.Run()
		}()
	}
}

// Stop stops scheduling new runs. The returned context is done once the
// running task, if any, has returned.
func (s *Scheduler) Stop() context.Context {
	cronDone := s.cron.Stop()
	s.logger.Info("cron stopped")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.running.Wait()
		cancel()
	}()
	return ctx
}

func (s *Scheduler) now() time.Time {
	return time.Now().In(s.cron.Location())
}
