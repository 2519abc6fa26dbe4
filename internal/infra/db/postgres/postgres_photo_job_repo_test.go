//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
)

func TestPhotoJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	tm := NewTxManager(testPool)
	repo := NewPhotoJobRepo(testPool, tm)
	userRepo := NewUserAccountRepo(testPool)

	user := &model.UserAccount{ID: "user-1", Credits: 3, PushToken: "tok"}

	setup := func(t *testing.T) {
		cleanup(t)
		if err := userRepo.Save(ctx, nil, user); err != nil {
			t.Fatalf("failed to save user: %v", err)
		}
	}

	t.Run("should create and find a job", func(t *testing.T) {
		setup(t)

		job := &model.PhotoJob{UserID: user.ID, OriginalURL: "https://pics.test/cat.jpg"}
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if job.ID == "" {
			t.Fatal("Create did not assign an ID")
		}

		found, err := repo.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.OriginalURL != "https://pics.test/cat.jpg" || found.Status != model.PhotoJobStatusProcessing {
			t.Fatalf("unexpected job: %+v", found)
		}
		if found.PickedAt != nil || found.ProcessedAt != nil {
			t.Fatal("fresh job should not be picked or processed")
		}
	})

	t.Run("should claim oldest job exactly once", func(t *testing.T) {
		setup(t)

		older := &model.PhotoJob{UserID: user.ID, OriginalURL: "u1", CreatedAt: time.Now().Add(-time.Minute)}
		newer := &model.PhotoJob{UserID: user.ID, OriginalURL: "u2"}
		if err := repo.Create(ctx, nil, older); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(ctx, nil, newer); err != nil {
			t.Fatal(err)
		}

		first, err := repo.FetchAndMarkPicked(ctx)
		if err != nil {
			t.Fatalf("first claim failed: %v", err)
		}
		if first.ID != older.ID {
			t.Fatalf("expected oldest job %s, got %s", older.ID, first.ID)
		}
		if first.PickedAt == nil {
			t.Fatal("claimed job has no picked_at")
		}

		second, err := repo.FetchAndMarkPicked(ctx)
		if err != nil {
			t.Fatalf("second claim failed: %v", err)
		}
		if second.ID != newer.ID {
			t.Fatalf("expected %s, got %s", newer.ID, second.ID)
		}

		if _, err := repo.FetchAndMarkPicked(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on empty queue, got %v", err)
		}
	})

	t.Run("should mark done only once", func(t *testing.T) {
		setup(t)

		job := &model.PhotoJob{UserID: user.ID, OriginalURL: "u"}
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}

		now := time.Now()
		if err := repo.MarkDone(ctx, nil, job.ID, "https://cdn.test/hero.png", "superhero", "a brave cat", "", now); err != nil {
			t.Fatalf("MarkDone failed: %v", err)
		}

		found, err := repo.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if found.Status != model.PhotoJobStatusDone || found.ResultURL != "https://cdn.test/hero.png" {
			t.Fatalf("unexpected terminal state: %+v", found)
		}
		if found.ProcessedAt == nil {
			t.Fatal("processed_at not set")
		}

		err = repo.MarkDone(ctx, nil, job.ID, "other", "t", "a", "", now)
		if !errors.Is(err, domain.ErrJobAlreadyFinished) {
			t.Fatalf("expected ErrJobAlreadyFinished, got %v", err)
		}
		err = repo.MarkError(ctx, job.ID, "late failure", now)
		if !errors.Is(err, domain.ErrJobAlreadyFinished) {
			t.Fatalf("expected ErrJobAlreadyFinished from MarkError, got %v", err)
		}
	})

	t.Run("should record error state", func(t *testing.T) {
		setup(t)

		job := &model.PhotoJob{UserID: user.ID, OriginalURL: "u"}
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}
		if err := repo.MarkError(ctx, job.ID, "download failed", time.Now()); err != nil {
			t.Fatalf("MarkError failed: %v", err)
		}

		found, err := repo.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if found.Status != model.PhotoJobStatusError || found.Error != "download failed" {
			t.Fatalf("unexpected state: %+v", found)
		}
	})

	t.Run("should reclaim stale claims", func(t *testing.T) {
		setup(t)

		job := &model.PhotoJob{UserID: user.ID, OriginalURL: "u"}
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}
		claimed, err := repo.FetchAndMarkPicked(ctx)
		if err != nil {
			t.Fatalf("claim failed: %v", err)
		}

		// Claim is fresh: a sweep with an older cutoff must leave it alone.
		n, err := repo.ReclaimStale(ctx, claimed.PickedAt.Add(-time.Minute))
		if err != nil {
			t.Fatalf("ReclaimStale failed: %v", err)
		}
		if n != 0 {
			t.Fatalf("reclaimed %d fresh claims, want 0", n)
		}
		if _, err := repo.FetchAndMarkPicked(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("fresh claim should hold, got %v", err)
		}

		// Cutoff past the claim time simulates the worker having died.
		n, err = repo.ReclaimStale(ctx, claimed.PickedAt.Add(time.Minute))
		if err != nil {
			t.Fatalf("ReclaimStale failed: %v", err)
		}
		if n != 1 {
			t.Fatalf("reclaimed = %d, want 1", n)
		}
		again, err := repo.FetchAndMarkPicked(ctx)
		if err != nil {
			t.Fatalf("reclaimed job not claimable: %v", err)
		}
		if again.ID != job.ID {
			t.Fatalf("claimed %s, want %s", again.ID, job.ID)
		}
	})

	t.Run("should persist credit error flag", func(t *testing.T) {
		setup(t)

		job := &model.PhotoJob{UserID: user.ID, OriginalURL: "u"}
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}
		if err := repo.MarkDone(ctx, nil, job.ID, "https://cdn.test/h.png", "knight", "a", "tx aborted", time.Now()); err != nil {
			t.Fatal(err)
		}
		found, _ := repo.FindByID(ctx, nil, job.ID)
		if found.CreditError != "tx aborted" {
			t.Fatalf("credit_error = %q", found.CreditError)
		}
	})
}
