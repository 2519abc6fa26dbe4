package repository

import (
	"context"
	"time"

	"pet-hero-backend/internal/domain/model"
)

// PhotoJobRepository persists photo jobs. Jobs are created in `processing`
// state by the ingest surface; the worker claims them via FetchAndMarkPicked
// so that at most one worker runs a given job.
type PhotoJobRepository interface {
	Create(ctx context.Context, tx Tx, job *model.PhotoJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PhotoJob, error)

	// FetchAndMarkPicked claims the oldest unclaimed processing job using
	// FOR UPDATE SKIP LOCKED semantics. Returns domain.ErrNotFound when no
	// job is waiting.
	FetchAndMarkPicked(ctx context.Context) (*model.PhotoJob, error)

	// MarkDone writes the terminal success fields. Must work both inside a
	// ledger transaction (tx != nil) and as a plain write (tx == nil) for the
	// credit-error fallback path.
	MarkDone(ctx context.Context, tx Tx, id, resultURL, theme, analysis, creditError string, processedAt time.Time) error

	// MarkError writes the terminal failure fields. Plain write, no tx.
	MarkError(ctx context.Context, id, errMsg string, processedAt time.Time) error

	// ListCreditErrors returns done jobs whose billing was skipped because
	// the ledger transaction failed, oldest first.
	ListCreditErrors(ctx context.Context, tx Tx, limit int) ([]*model.PhotoJob, error)

	// ClearCreditError removes the billing-gap flag once the job has been
	// reconciled.
	ClearCreditError(ctx context.Context, tx Tx, id string) error

	// ReclaimStale releases claims whose worker died mid-job: processing
	// rows picked before the cutoff get picked_at cleared so the poll loop
	// can claim them again. Returns the number of jobs released.
	ReclaimStale(ctx context.Context, pickedBefore time.Time) (int, error)
}
