package usecase

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"pet-hero-backend/internal/domain/ports/adapter"
	"pet-hero-backend/internal/infra/metrics"
)

// HeroImageUseCase produces the transformed image itself. Generate never
// fails: any problem (model error, missing inline data, publish failure)
// degrades to the original URL, which callers treat as valid output. The
// stage is rate-limit sensitive, so there is exactly one model attempt and
// no retry chain.
type HeroImageUseCase interface {
	Generate(ctx context.Context, originalURL string, img *adapter.Blob, theme string) string
}

var _ HeroImageUseCase = (*heroImageUC)(nil)

type heroImageUC struct {
	ai    adapter.GenerativeAdapter
	model string
	store adapter.ResultStore
	log   *zerolog.Logger
}

func NewHeroImageUseCase(ai adapter.GenerativeAdapter, model string, store adapter.ResultStore, logger *zerolog.Logger) *heroImageUC {
	return &heroImageUC{ai: ai, model: model, store: store, log: logger}
}

func (h *heroImageUC) Generate(ctx context.Context, originalURL string, img *adapter.Blob, theme string) string {
	req := adapter.Request{Parts: []adapter.Part{
		{Text: "Transform the pet in this photo into a " + theme + ". " +
			"Preserve the pet's facial identity completely: same face, same eyes, same markings, same expression. " +
			"Change only the costume, props and background to match the theme. Produce a single finished image."},
		{InlineData: img},
	}}

	start := time.Now()
	resp, err := h.ai.GenerateContent(ctx, h.model, req)
	latency := float64(time.Since(start) / time.Millisecond)
	if err != nil {
		metrics.ObserveAICall(h.model, false, latency)
		if adapter.IsRateLimited(err) {
			metrics.IncRateLimited(h.model)
		}
		h.log.Warn().Err(err).Str("model", h.model).Msg("hero image generation failed, serving original")
		return originalURL
	}
	metrics.ObserveAICall(h.model, true, latency)

	blob, ok := resp.FirstImage()
	if !ok {
		h.log.Warn().Str("model", h.model).Msg("model returned no inline image, serving original")
		return originalURL
	}

	key := resultKey(originalURL, blob.MIMEType)
	publicURL, err := h.store.Publish(ctx, key, blob.Data, blob.MIMEType)
	if err != nil {
		metrics.IncPublishFailure()
		h.log.Error().Err(err).Str("key", key).Msg("result publish failed, serving original")
		return originalURL
	}
	return publicURL
}

// resultKey derives a collision-free object key from the original filename:
// base name plus a ULID suffix (time-ordered, unique per upload).
func resultKey(originalURL, mimeType string) string {
	base := "photo"
	if u, err := url.Parse(originalURL); err == nil {
		if b := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path)); b != "" && b != "." && b != "/" {
			base = b
		}
	}
	ext := ".png"
	if mimeType == "image/jpeg" {
		ext = ".jpg"
	}
	return fmt.Sprintf("heroes/%s_%s%s", base, ulid.Make().String(), ext)
}
