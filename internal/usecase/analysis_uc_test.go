package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/adapter"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testImage() *adapter.Blob {
	return &adapter.Blob{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}
}

func newAnalysis(t *testing.T, policy FallbackPolicy) (*analysisUC, *[]time.Duration) {
	t.Helper()
	uc := NewAnalysisUseCase(policy, nopLogger())
	var slept []time.Duration
	uc.sleep = func(ctx context.Context, d time.Duration) { slept = append(slept, d) }
	return uc, &slept
}

func twoModelPolicy(imageModel, textModel *scriptedModel) FallbackPolicy {
	return FallbackPolicy{
		Candidates: []ModelCandidate{
			{Name: "img-model", Adapter: imageModel, ImageCapable: true},
			{Name: "txt-model", Adapter: textModel, ImageCapable: false},
		},
		Cooldown: 20 * time.Second,
	}
}

func TestDescribeFirstCandidateWins(t *testing.T) {
	img := &scriptedModel{queue: []scriptedReply{textReply("a caped crusader cat")}}
	txt := &scriptedModel{}
	uc, slept := newAnalysis(t, twoModelPolicy(img, txt))

	got := uc.Describe(context.Background(), testImage(), model.HeroThemes[0])
	if got != "a caped crusader cat" {
		t.Fatalf("got %q", got)
	}
	if len(txt.calls) != 0 {
		t.Fatal("text model should not be called")
	}
	if len(*slept) != 0 {
		t.Fatal("no cooldown expected")
	}
	// the image-capable prompt must inline the photo
	if img.calls[0].Parts[1].InlineData == nil {
		t.Fatal("image candidate prompt missing inline image")
	}
}

func TestDescribeFallsThroughOnPlainError(t *testing.T) {
	img := &scriptedModel{queue: []scriptedReply{errReply(errors.New("connection reset"))}}
	txt := &scriptedModel{queue: []scriptedReply{textReply("imagined knight pup")}}
	uc, slept := newAnalysis(t, twoModelPolicy(img, txt))

	got := uc.Describe(context.Background(), testImage(), model.HeroThemes[1])
	if got != "imagined knight pup" {
		t.Fatalf("got %q", got)
	}
	if len(*slept) != 0 {
		t.Fatal("plain errors must not trigger the cooldown")
	}
	// text-only candidate never sees the image
	for _, p := range txt.calls[0].Parts {
		if p.InlineData != nil {
			t.Fatal("text candidate prompt must not inline the image")
		}
	}
}

func TestDescribeRateLimitMidChainSkipsCooldown(t *testing.T) {
	img := &scriptedModel{queue: []scriptedReply{errReply(errors.New("429 quota exceeded"))}}
	txt := &scriptedModel{queue: []scriptedReply{textReply("ok")}}
	uc, slept := newAnalysis(t, twoModelPolicy(img, txt))

	if got := uc.Describe(context.Background(), testImage(), model.HeroThemes[2]); got != "ok" {
		t.Fatalf("got %q", got)
	}
	if len(*slept) != 0 {
		t.Fatal("rate limit on a non-final candidate must not wait")
	}
}

func TestDescribeRateLimitOnLastCandidateRetriesOnceAfterCooldown(t *testing.T) {
	img := &scriptedModel{queue: []scriptedReply{errReply(errors.New("boom"))}}
	txt := &scriptedModel{queue: []scriptedReply{
		errReply(errors.New("RESOURCE_EXHAUSTED")),
		textReply("retry landed"),
	}}
	uc, slept := newAnalysis(t, twoModelPolicy(img, txt))

	got := uc.Describe(context.Background(), testImage(), model.HeroThemes[3])
	if got != "retry landed" {
		t.Fatalf("got %q", got)
	}
	if len(*slept) != 1 || (*slept)[0] != 20*time.Second {
		t.Fatalf("slept = %v, want one 20s cooldown", *slept)
	}
	if len(txt.calls) != 2 {
		t.Fatalf("text model calls = %d, want 2", len(txt.calls))
	}
}

func TestDescribeExhaustionServesOfflinePlaceholder(t *testing.T) {
	theme := model.HeroThemes[4]
	img := &scriptedModel{queue: []scriptedReply{errReply(errors.New("down"))}}
	txt := &scriptedModel{queue: []scriptedReply{
		errReply(errors.New("429")),
		errReply(errors.New("still 429")),
	}}
	uc, _ := newAnalysis(t, twoModelPolicy(img, txt))

	got := uc.Describe(context.Background(), testImage(), theme)
	if got != model.OfflineAnalysis(theme) {
		t.Fatalf("got %q, want offline placeholder", got)
	}
	if got == "" {
		t.Fatal("placeholder must be non-empty")
	}
}

func TestDescribeEmptyResponseTreatedAsFailure(t *testing.T) {
	img := &scriptedModel{queue: []scriptedReply{{resp: &adapter.ModelResponse{}}}}
	txt := &scriptedModel{queue: []scriptedReply{textReply("recovered")}}
	uc, _ := newAnalysis(t, twoModelPolicy(img, txt))

	if got := uc.Describe(context.Background(), testImage(), model.HeroThemes[5]); got != "recovered" {
		t.Fatalf("got %q", got)
	}
}

func TestDescribeNeverEmptyAcrossFailureCombinations(t *testing.T) {
	outcomes := [][]scriptedReply{
		{errReply(errors.New("a")), errReply(errors.New("b"))},
		{errReply(errors.New("429")), errReply(errors.New("429")), errReply(errors.New("429"))},
		{{resp: &adapter.ModelResponse{}}, {resp: &adapter.ModelResponse{}}},
		{errReply(errors.New("quota")), textReply("fine")},
	}
	for i, script := range outcomes {
		img := &scriptedModel{queue: []scriptedReply{script[0]}}
		txt := &scriptedModel{queue: script[1:]}
		uc, _ := newAnalysis(t, twoModelPolicy(img, txt))
		if got := uc.Describe(context.Background(), testImage(), model.HeroThemes[i]); got == "" {
			t.Fatalf("case %d: empty analysis", i)
		}
	}
}

func TestOfflineAnalysisGenericTemplate(t *testing.T) {
	got := model.OfflineAnalysis("laser-eyed cyborg")
	if got == "" {
		t.Fatal("empty")
	}
	if !strings.Contains(got, "laser-eyed cyborg") {
		t.Fatalf("template %q does not mention theme", got)
	}
	if !strings.Contains(got, "preserved") {
		t.Fatalf("template %q does not promise feature preservation", got)
	}
}
