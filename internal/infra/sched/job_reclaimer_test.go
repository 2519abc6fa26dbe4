package sched

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/repository"
)

type reclaimRecorder struct {
	cutoffs []time.Time
	n       int
}

func (r *reclaimRecorder) ReclaimStale(ctx context.Context, pickedBefore time.Time) (int, error) {
	r.cutoffs = append(r.cutoffs, pickedBefore)
	return r.n, nil
}

func (r *reclaimRecorder) Create(ctx context.Context, tx repository.Tx, job *model.PhotoJob) error {
	return nil
}
func (r *reclaimRecorder) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PhotoJob, error) {
	return nil, nil
}
func (r *reclaimRecorder) FetchAndMarkPicked(ctx context.Context) (*model.PhotoJob, error) {
	return nil, nil
}
func (r *reclaimRecorder) MarkDone(ctx context.Context, tx repository.Tx, id, resultURL, theme, analysis, creditError string, processedAt time.Time) error {
	return nil
}
func (r *reclaimRecorder) MarkError(ctx context.Context, id, errMsg string, processedAt time.Time) error {
	return nil
}
func (r *reclaimRecorder) ListCreditErrors(ctx context.Context, tx repository.Tx, limit int) ([]*model.PhotoJob, error) {
	return nil, nil
}
func (r *reclaimRecorder) ClearCreditError(ctx context.Context, tx repository.Tx, id string) error {
	return nil
}

func TestReclaimerTickUsesStalenessCutoff(t *testing.T) {
	logger := zerolog.New(io.Discard)
	repo := &reclaimRecorder{n: 2}
	w := NewJobReclaimer(repo, time.Minute, 10*time.Minute, &logger)

	before := time.Now()
	w.tick(context.Background())

	if len(repo.cutoffs) != 1 {
		t.Fatalf("sweeps = %d, want 1", len(repo.cutoffs))
	}
	got := repo.cutoffs[0]
	want := before.Add(-10 * time.Minute)
	if got.Before(want.Add(-time.Second)) || got.After(want.Add(time.Second)) {
		t.Fatalf("cutoff %v not ~10m before now", got)
	}
}
