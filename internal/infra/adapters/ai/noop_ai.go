package ai

import (
	"context"
	"time"

	"pet-hero-backend/internal/domain/ports/adapter"
)

var _ adapter.GenerativeAdapter = (*NoopAdapter)(nil)

// NoopAdapter is a deterministic stand-in for local/dev runs: it returns a
// canned text and echoes the request's inline image back as the "generated"
// result, so the pipeline exercises end to end without spending quota.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter { return &NoopAdapter{} }

func (a *NoopAdapter) GenerateContent(ctx context.Context, model string, req adapter.Request) (*adapter.ModelResponse, error) {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	out := &adapter.ModelResponse{
		TextParts: []string{"A noop transformation description for local development."},
	}
	for _, p := range req.Parts {
		if p.InlineData != nil {
			out.InlineImages = append(out.InlineImages, *p.InlineData)
			break
		}
	}
	return out, nil
}
