package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler runs a Job on a fixed interval. A tick that is still executing
// suppresses the next tick instead of running concurrently.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job

	mu      sync.Mutex // held while a tick is executing
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewScheduler(name string, interval time.Duration, job Job) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.started {
		return nil
	}

	if err := s.job.Init(ctx); err != nil {
		return err
	}

	subCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				s.tick(subCtx)
			}
		}
	}()

	log.Ctx(ctx).Info().Msgf("scheduler %s started, interval: %v", s.name, s.interval)

	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.mu.TryLock() {
		log.Ctx(ctx).Warn().Msgf("scheduler %s tick suppressed, previous tick still running", s.name)
		return
	}
	defer s.mu.Unlock()

	if err := s.job.Run(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("scheduler %s tick failed: %v", s.name, err)
	}
}

// IsRunning reports whether a tick is executing right now.
func (s *Scheduler) IsRunning() bool {
	if s.mu.TryLock() {
		s.mu.Unlock()
		return false
	}
	return true
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.started {
		return nil
	}

	s.cancel()
	s.wg.Wait()
	s.started = false

	return s.job.CleanUp(ctx)
}
