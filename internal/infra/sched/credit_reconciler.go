package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pet-hero-backend/internal/usecase"
)

// CreditReconciler periodically retries billing for jobs that completed
// through the non-transactional fallback path. This covers crashes or
// database trouble that left a job done but its owner uncharged.
type CreditReconciler struct {
	ledger    usecase.LedgerUseCase
	interval  time.Duration // how often to scan
	batchSize int
	log       *zerolog.Logger
}

func NewCreditReconciler(ledger usecase.LedgerUseCase, interval time.Duration, batchSize int, logger *zerolog.Logger) *CreditReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &CreditReconciler{ledger: ledger, interval: interval, batchSize: batchSize, log: logger}
}

func (w *CreditReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *CreditReconciler) tick(ctx context.Context) {
	n, err := w.ledger.ReconcileCreditErrors(ctx, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("credit-reconciler: scan failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("reconciled", n).Msg("credit-reconciler: settled billing gaps")
	}
}
