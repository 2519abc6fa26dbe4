package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/ports/adapter"
)

var _ adapter.GenerativeAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter implements the generative port on the official Gemini SDK.
// It is model-agnostic: the model name comes in per call so the same client
// serves both the analysis chain and the image-generation stage.
type GeminiAdapter struct {
	client      *genai.Client
	callTimeout time.Duration
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL string, callTimeout time.Duration) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, callTimeout: callTimeout}, nil
}

func (g *GeminiAdapter) GenerateContent(ctx context.Context, model string, req adapter.Request) (*adapter.ModelResponse, error) {
	if len(req.Parts) == 0 {
		return nil, fmt.Errorf("gemini: %w: empty request", domain.ErrInvalidArgument)
	}
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch {
		case p.InlineData != nil:
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{
				MIMEType: p.InlineData.MIMEType,
				Data:     p.InlineData.Data,
			}})
		case p.Text != "":
			parts = append(parts, &genai.Part{Text: p.Text})
		}
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, err
	}
	return validateResponse(resp)
}

// validateResponse converts the SDK's candidate/part nesting into the typed
// boundary shape. Any malformed response collapses into ErrInvalidResponse
// here so callers never walk raw structures.
func validateResponse(resp *genai.GenerateContentResponse) (*adapter.ModelResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: %w: no candidates", domain.ErrInvalidResponse)
	}
	out := &adapter.ModelResponse{}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				out.TextParts = append(out.TextParts, part.Text)
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				out.InlineImages = append(out.InlineImages, adapter.Blob{
					MIMEType: part.InlineData.MIMEType,
					Data:     part.InlineData.Data,
				})
			}
		}
	}
	if len(out.TextParts) == 0 && len(out.InlineImages) == 0 {
		return nil, fmt.Errorf("gemini: %w: empty candidates", domain.ErrInvalidResponse)
	}
	return out, nil
}
