package adapter

import (
	"context"
	"strings"
)

// Part is one element of a generative request: instruction text or an
// inlined image.
type Part struct {
	Text       string
	InlineData *Blob
}

// Blob carries raw image bytes plus their MIME type.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Request is the provider-neutral generate-content request.
type Request struct {
	Parts []Part
}

// ModelResponse is the validated shape of a generative response. Adapters
// normalize the provider's candidate/part nesting into these two slices so
// business logic never walks raw response structures.
type ModelResponse struct {
	TextParts    []string
	InlineImages []Blob
}

// FirstText returns the first non-empty text part, or "".
func (r *ModelResponse) FirstText() string {
	if r == nil {
		return ""
	}
	for _, t := range r.TextParts {
		if strings.TrimSpace(t) != "" {
			return t
		}
	}
	return ""
}

// FirstImage returns the first inline image part, if any.
func (r *ModelResponse) FirstImage() (Blob, bool) {
	if r == nil || len(r.InlineImages) == 0 {
		return Blob{}, false
	}
	return r.InlineImages[0], true
}

// GenerativeAdapter is the port for text/image generative models.
type GenerativeAdapter interface {
	GenerateContent(ctx context.Context, model string, req Request) (*ModelResponse, error)
}

// rate-limit signatures surfaced in provider error strings
var rateLimitMarkers = []string{"429", "quota", "resource_exhausted", "rate limit"}

// IsRateLimited pattern-matches an error against known quota signatures.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
