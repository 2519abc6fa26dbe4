// File: internal/infra/redis/job_guard.go
package redis

import (
	"context"
	"time"

	"pet-hero-backend/internal/usecase"
)

var _ usecase.ProcessedGuard = (*JobGuard)(nil)

// JobGuard marks finalized job ids with SETNX so redelivered jobs are
// detected across worker restarts. The TTL only bounds key growth; the
// database terminal status stays the source of truth.
type JobGuard struct {
	client *Client
	ttl    time.Duration
}

func NewJobGuard(client *Client, ttl time.Duration) *JobGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JobGuard{client: client, ttl: ttl}
}

func (g *JobGuard) MarkProcessed(ctx context.Context, jobID string) (bool, error) {
	return g.client.SetNX(ctx, "processed:job:"+jobID, "1", g.ttl)
}
