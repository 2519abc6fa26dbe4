package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pet-hero-backend/internal/domain/ports/repository"
)

// JobReclaimer sweeps claims left behind by crashed workers. A job stays in
// processing with picked_at set if its worker died mid-pipeline; once the
// claim is older than staleAfter the sweep clears picked_at and the poll
// loop picks the job up again.
type JobReclaimer struct {
	jobs       repository.PhotoJobRepository
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewJobReclaimer(jobs repository.PhotoJobRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *JobReclaimer {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &JobReclaimer{jobs: jobs, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *JobReclaimer) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *JobReclaimer) tick(ctx context.Context) {
	n, err := w.jobs.ReclaimStale(ctx, time.Now().Add(-w.staleAfter))
	if err != nil {
		w.log.Error().Err(err).Msg("job-reclaimer: sweep failed")
		return
	}
	if n > 0 {
		w.log.Warn().Int("reclaimed", n).Msg("job-reclaimer: released stale claims")
	}
}
