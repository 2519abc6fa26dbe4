package ai

import (
	"context"

	"pet-hero-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.GenerativeAdapter = (*limitedAdapter)(nil)

type limitedAdapter struct {
	inner adapter.GenerativeAdapter
	sem   chan struct{}
}

// NewLimitedAdapter caps concurrent in-flight model calls across all workers.
func NewLimitedAdapter(inner adapter.GenerativeAdapter, maxConcurrent int) adapter.GenerativeAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAdapter{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAdapter) GenerateContent(ctx context.Context, model string, req adapter.Request) (*adapter.ModelResponse, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.GenerateContent(ctx, model, req)
}
