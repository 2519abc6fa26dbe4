package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/adapter"
	"pet-hero-backend/internal/infra/metrics"
)

// ModelCandidate is one entry of the analysis fallback chain.
type ModelCandidate struct {
	Name         string
	Adapter      adapter.GenerativeAdapter
	ImageCapable bool
}

// FallbackPolicy is the explicit retry/fallback state for the analysis stage:
// an ordered candidate list (image-capable first, then text-only) plus the
// cooldown observed before the single final rate-limit retry. Keeping the
// policy as data lets tests drive the resolution loop with fakes.
type FallbackPolicy struct {
	Candidates []ModelCandidate
	Cooldown   time.Duration
}

// FinalRetryCandidate returns the text-only candidate used for the one
// post-cooldown attempt, falling back to the last candidate in the chain.
func (p FallbackPolicy) FinalRetryCandidate() ModelCandidate {
	for i := len(p.Candidates) - 1; i >= 0; i-- {
		if !p.Candidates[i].ImageCapable {
			return p.Candidates[i]
		}
	}
	return p.Candidates[len(p.Candidates)-1]
}

// AnalysisUseCase produces the creative description of the transformation.
// Describe never fails and never returns an empty string: when the whole
// chain is exhausted it serves a deterministic offline placeholder, because
// losing this enrichment text must not abort the pipeline.
type AnalysisUseCase interface {
	Describe(ctx context.Context, img *adapter.Blob, theme string) string
}

var _ AnalysisUseCase = (*analysisUC)(nil)

type analysisUC struct {
	policy FallbackPolicy
	sleep  func(ctx context.Context, d time.Duration)
	log    *zerolog.Logger
}

func NewAnalysisUseCase(policy FallbackPolicy, logger *zerolog.Logger) *analysisUC {
	return &analysisUC{
		policy: policy,
		sleep:  sleepCtx,
		log:    logger,
	}
}

func (a *analysisUC) Describe(ctx context.Context, img *adapter.Blob, theme string) string {
	last := len(a.policy.Candidates) - 1
	for i, c := range a.policy.Candidates {
		text, err := a.attempt(ctx, c, analysisRequest(c.ImageCapable, img, theme))
		if err == nil {
			return text
		}

		rateLimited := adapter.IsRateLimited(err)
		if rateLimited {
			metrics.IncRateLimited(c.Name)
		}
		a.log.Warn().Err(err).
			Str("analysis_model", c.Name).
			Bool("rate_limited", rateLimited).
			Msg("analysis candidate failed")

		// A rate limit on the last candidate earns exactly one more attempt,
		// against the text-only model with a simplified prompt, after a
		// fixed cooldown. Anything else just moves to the next candidate.
		if rateLimited && i == last {
			a.sleep(ctx, a.policy.Cooldown)
			retry := a.policy.FinalRetryCandidate()
			if text, err := a.attempt(ctx, retry, simplifiedAnalysisRequest(theme)); err == nil {
				return text
			} else {
				a.log.Warn().Err(err).Str("analysis_model", retry.Name).Msg("final analysis retry failed")
			}
		}
	}

	metrics.IncAnalysisPlaceholder()
	a.log.Info().Str("theme", theme).Msg("analysis chain exhausted, serving offline placeholder")
	return model.OfflineAnalysis(theme)
}

func (a *analysisUC) attempt(ctx context.Context, c ModelCandidate, req adapter.Request) (string, error) {
	start := time.Now()
	resp, err := c.Adapter.GenerateContent(ctx, c.Name, req)
	latency := float64(time.Since(start) / time.Millisecond)
	if err != nil {
		metrics.ObserveAICall(c.Name, false, latency)
		return "", err
	}
	text := resp.FirstText()
	if text == "" {
		metrics.ObserveAICall(c.Name, false, latency)
		return "", domain.ErrInvalidResponse
	}
	metrics.ObserveAICall(c.Name, true, latency)
	return text, nil
}

func analysisRequest(imageCapable bool, img *adapter.Blob, theme string) adapter.Request {
	if imageCapable && img != nil {
		return adapter.Request{Parts: []adapter.Part{
			{Text: "Look at this pet photo and describe, in two or three vivid sentences, how this exact pet would look transformed into a " +
				theme + ". Keep the pet's face, markings and expression exactly as they are; change only costume and setting."},
			{InlineData: img},
		}}
	}
	return adapter.Request{Parts: []adapter.Part{
		{Text: "Without seeing the photo, creatively imagine a beloved pet transformed into a " +
			theme + ". Describe the scene in two or three vivid sentences, stressing that the pet's own face and features stay unchanged."},
	}}
}

func simplifiedAnalysisRequest(theme string) adapter.Request {
	return adapter.Request{Parts: []adapter.Part{
		{Text: "In one or two sentences, describe a pet reimagined as a " + theme + ", keeping its original face."},
	}}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
