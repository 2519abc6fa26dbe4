package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/repository"
	"pet-hero-backend/internal/infra/metrics"
)

// ProcessedGuard marks a job id as finalized exactly once. MarkProcessed
// returns false when a previous delivery already claimed the id, which
// shields the ledger from double deduction if the trigger re-fires.
type ProcessedGuard interface {
	MarkProcessed(ctx context.Context, jobID string) (first bool, err error)
}

// LedgerUseCase atomically transitions a job to `done` and settles the
// owner's credit balance: terminal write, balance decrement and audit entry
// commit together or not at all.
type LedgerUseCase interface {
	Complete(ctx context.Context, jobID, resultURL, theme, analysis string) error

	// ReconcileCreditErrors settles billing for done jobs whose ledger
	// transaction failed at completion time. Returns how many jobs were
	// reconciled.
	ReconcileCreditErrors(ctx context.Context, limit int) (int, error)
}

var _ LedgerUseCase = (*ledgerUC)(nil)

type ledgerUC struct {
	jobs  repository.PhotoJobRepository
	users repository.UserAccountRepository
	audit repository.CreditUsageLogRepository
	tm    repository.TransactionManager
	guard ProcessedGuard // optional
	log   *zerolog.Logger
}

func NewLedgerUseCase(
	jobs repository.PhotoJobRepository,
	users repository.UserAccountRepository,
	audit repository.CreditUsageLogRepository,
	tm repository.TransactionManager,
	guard ProcessedGuard,
	logger *zerolog.Logger,
) *ledgerUC {
	return &ledgerUC{jobs: jobs, users: users, audit: audit, tm: tm, guard: guard, log: logger}
}

func (l *ledgerUC) Complete(ctx context.Context, jobID, resultURL, theme, analysis string) error {
	job, err := l.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
		}
		return fmt.Errorf("resolve job owner: %w", err)
	}

	if l.guard != nil {
		first, gerr := l.guard.MarkProcessed(ctx, jobID)
		switch {
		case gerr != nil:
			// The guard is an extra shield, not a gate: if redis is down we
			// still rely on the transaction and proceed.
			l.log.Warn().Err(gerr).Str("job_id", jobID).Msg("processed guard unavailable")
		case !first && job.Terminal():
			l.log.Warn().Str("job_id", jobID).Msg("duplicate delivery of finalized job, skipping ledger update")
			return nil
			// !first with a non-terminal job means an earlier delivery died
			// before committing; running the transaction again is safe.
		}
	}

	now := time.Now()
	txErr := l.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := l.jobs.MarkDone(ctx, tx, jobID, resultURL, theme, analysis, "", now); err != nil {
			return fmt.Errorf("mark job done: %w", err)
		}

		owner, err := l.users.FindByIDForUpdate(ctx, tx, job.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Job still completes; billing has no counterparty to charge.
				l.log.Warn().Str("job_id", jobID).Str("user_id", job.UserID).
					Msg("job owner missing, skipping credit deduction")
				return nil
			}
			return fmt.Errorf("lock user row: %w", err)
		}

		if owner.HasCredits() {
			remaining, err := l.users.DeductCredit(ctx, tx, owner.ID)
			if err != nil {
				return fmt.Errorf("deduct credit: %w", err)
			}
			if err := l.audit.Append(ctx, tx, &model.CreditUsageLogEntry{
				ID:               uuid.NewString(),
				UserID:           owner.ID,
				JobID:            jobID,
				CreditsDeducted:  1,
				Purpose:          model.CreditPurposeHeroTransform,
				RemainingCredits: remaining,
				Theme:            theme,
				CreatedAt:        now,
			}); err != nil {
				return fmt.Errorf("append usage entry: %w", err)
			}
			metrics.IncCreditDeducted()
			return nil
		}

		// Balance exhausted: complete the job anyway, record the attempt.
		if err := l.audit.Append(ctx, tx, &model.CreditUsageLogEntry{
			ID:               uuid.NewString(),
			UserID:           owner.ID,
			JobID:            jobID,
			CreditsDeducted:  0,
			Purpose:          model.CreditPurposeNoCredits,
			RemainingCredits: owner.Credits,
			Theme:            theme,
			Note:             "completed without available credits",
			CreatedAt:        now,
		}); err != nil {
			return fmt.Errorf("append no-credit entry: %w", err)
		}
		metrics.IncNoCreditCompleted()
		return nil
	})
	if txErr == nil {
		return nil
	}

	// The transaction machinery failed after the owner was resolved. Prefer a
	// user-visible completed job over one stuck in `processing`: best-effort
	// plain write flagging the billing gap, and no deduction on this path.
	metrics.IncLedgerFallback()
	l.log.Error().Err(txErr).Str("job_id", jobID).
		Msg("ledger transaction failed, falling back to non-transactional done write")
	if err := l.jobs.MarkDone(ctx, repository.NoTX, jobID, resultURL, theme, analysis, txErr.Error(), now); err != nil {
		return fmt.Errorf("ledger fallback write: %w", err)
	}
	return nil
}

func (l *ledgerUC) ReconcileCreditErrors(ctx context.Context, limit int) (int, error) {
	jobs, err := l.jobs.ListCreditErrors(ctx, repository.NoTX, limit)
	if err != nil {
		return 0, fmt.Errorf("list credit errors: %w", err)
	}

	reconciled := 0
	for _, job := range jobs {
		if err := l.reconcileOne(ctx, job); err != nil {
			l.log.Warn().Err(err).Str("job_id", job.ID).Msg("credit reconcile attempt failed")
			continue
		}
		reconciled++
	}
	return reconciled, nil
}

func (l *ledgerUC) reconcileOne(ctx context.Context, job *model.PhotoJob) error {
	now := time.Now()
	return l.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		owner, err := l.users.FindByIDForUpdate(ctx, tx, job.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Nobody to bill; clear the flag so the scan stops retrying.
				l.log.Warn().Str("job_id", job.ID).Str("user_id", job.UserID).
					Msg("reconcile: job owner missing, clearing flag without billing")
				return l.jobs.ClearCreditError(ctx, tx, job.ID)
			}
			return fmt.Errorf("lock user row: %w", err)
		}

		if owner.HasCredits() {
			remaining, err := l.users.DeductCredit(ctx, tx, owner.ID)
			if err != nil {
				return fmt.Errorf("deduct credit: %w", err)
			}
			if err := l.audit.Append(ctx, tx, &model.CreditUsageLogEntry{
				ID:               uuid.NewString(),
				UserID:           owner.ID,
				JobID:            job.ID,
				CreditsDeducted:  1,
				Purpose:          model.CreditPurposeHeroTransform,
				RemainingCredits: remaining,
				Theme:            job.Theme,
				Note:             "reconciled after ledger failure",
				CreatedAt:        now,
			}); err != nil {
				return fmt.Errorf("append usage entry: %w", err)
			}
			metrics.IncCreditDeducted()
		} else {
			if err := l.audit.Append(ctx, tx, &model.CreditUsageLogEntry{
				ID:               uuid.NewString(),
				UserID:           owner.ID,
				JobID:            job.ID,
				CreditsDeducted:  0,
				Purpose:          model.CreditPurposeNoCredits,
				RemainingCredits: owner.Credits,
				Theme:            job.Theme,
				Note:             "reconciled without available credits",
				CreatedAt:        now,
			}); err != nil {
				return fmt.Errorf("append no-credit entry: %w", err)
			}
			metrics.IncNoCreditCompleted()
		}
		return l.jobs.ClearCreditError(ctx, tx, job.ID)
	})
}
