package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/ports/adapter"
)

var _ adapter.GenerativeAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements the generative port against any OpenAI-compatible
// chat-completions gateway. It is text-only: inline image parts are dropped,
// which is exactly what the analysis fallback chain wants from its text
// candidate.
type OpenAIAdapter struct {
	apiKey string
	base   string // e.g., https://api.openai.com/v1
	client *http.Client
}

func NewOpenAIAdapter(apiKey, base string, callTimeout time.Duration) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &OpenAIAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: callTimeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenAIAdapter) GenerateContent(ctx context.Context, model string, req adapter.Request) (*adapter.ModelResponse, error) {
	var sb strings.Builder
	for _, p := range req.Parts {
		if p.Text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("openai: %w: no text parts", domain.ErrInvalidArgument)
	}

	reqBody := struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}{Model: model, Messages: []chatMessage{{Role: "user", Content: sb.String()}}}

	b, _ := json.Marshal(reqBody)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		// keep the status in the message so rate-limit detection can see 429
		return nil, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openai: %w: %v", domain.ErrInvalidResponse, err)
	}

	out := &adapter.ModelResponse{}
	for _, c := range payload.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			out.TextParts = append(out.TextParts, c.Message.Content)
		}
	}
	if len(out.TextParts) == 0 {
		return nil, fmt.Errorf("openai: %w: no usable choices", domain.ErrInvalidResponse)
	}
	return out, nil
}
