package model

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestRandomThemeUniformDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const draws = 150000

	counts := make(map[string]int, len(HeroThemes))
	for i := 0; i < draws; i++ {
		counts[RandomTheme(rng)]++
	}

	if len(counts) != len(HeroThemes) {
		t.Fatalf("observed %d distinct themes, want %d", len(counts), len(HeroThemes))
	}
	expected := float64(draws) / float64(len(HeroThemes))
	for theme, n := range counts {
		// 5% tolerance is generous at this sample size
		if math.Abs(float64(n)-expected) > expected*0.05 {
			t.Errorf("theme %q drawn %d times, expected ~%.0f", theme, n, expected)
		}
	}
}

func TestOfflineAnalysisCoversWholeCatalog(t *testing.T) {
	for _, theme := range HeroThemes {
		if OfflineAnalysis(theme) == "" {
			t.Errorf("theme %q has no offline analysis", theme)
		}
	}
}

func TestPhotoJobTerminal(t *testing.T) {
	j := &PhotoJob{Status: PhotoJobStatusProcessing}
	if j.Terminal() {
		t.Fatal("processing is not terminal")
	}
	j.Status = PhotoJobStatusDone
	if !j.Terminal() {
		t.Fatal("done is terminal")
	}
	j.Status = PhotoJobStatusError
	if !j.Terminal() {
		t.Fatal("error is terminal")
	}
}

func TestUserAccountHasCredits(t *testing.T) {
	u := &UserAccount{Credits: 0, UpdatedAt: time.Now()}
	if u.HasCredits() {
		t.Fatal("zero balance has no credits")
	}
	u.Credits = 1
	if !u.HasCredits() {
		t.Fatal("positive balance has credits")
	}
}
