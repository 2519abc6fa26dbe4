package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/repository"
)

var _ repository.CreditUsageLogRepository = (*creditUsageLogRepo)(nil)

type creditUsageLogRepo struct {
	pool *pgxpool.Pool
}

func NewCreditUsageLogRepo(pool *pgxpool.Pool) *creditUsageLogRepo {
	return &creditUsageLogRepo{pool: pool}
}

func (r *creditUsageLogRepo) Append(ctx context.Context, tx repository.Tx, entry *model.CreditUsageLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO credit_usage_log
  (id, user_id, job_id, credits_deducted, purpose, remaining_credits, theme, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	_, err := execSQL(ctx, r.pool, tx, q,
		entry.ID, entry.UserID, entry.JobID, entry.CreditsDeducted, entry.Purpose,
		entry.RemainingCredits, entry.Theme, entry.Note, entry.CreatedAt)
	return err
}

func (r *creditUsageLogRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.CreditUsageLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, user_id, job_id, credits_deducted, purpose, remaining_credits, theme, note, created_at
FROM credit_usage_log
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CreditUsageLogEntry
	for rows.Next() {
		var e model.CreditUsageLogEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.JobID, &e.CreditsDeducted, &e.Purpose,
			&e.RemainingCredits, &e.Theme, &e.Note, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
