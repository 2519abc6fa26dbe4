package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/repository"
)

var _ repository.UserAccountRepository = (*userAccountRepo)(nil)

type userAccountRepo struct {
	pool *pgxpool.Pool
}

func NewUserAccountRepo(pool *pgxpool.Pool) *userAccountRepo {
	return &userAccountRepo{pool: pool}
}

func (r *userAccountRepo) Save(ctx context.Context, tx repository.Tx, u *model.UserAccount) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = time.Now()

	const q = `
INSERT INTO users (id, credits, push_token, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  credits = EXCLUDED.credits,
  push_token = EXCLUDED.push_token,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Credits, u.PushToken, u.CreatedAt, u.UpdatedAt)
	return err
}

const userColumns = `id, credits, push_token, created_at, updated_at`

func (r *userAccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserAccount, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	return r.findOne(ctx, tx, q, id)
}

// FindByIDForUpdate locks the user row for the rest of the transaction so
// concurrent credit deductions for the same user serialize.
func (r *userAccountRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.UserAccount, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE;`
	return r.findOne(ctx, tx, q, id)
}

func (r *userAccountRepo) findOne(ctx context.Context, tx repository.Tx, q, id string) (*model.UserAccount, error) {
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var u model.UserAccount
	if err := row.Scan(&u.ID, &u.Credits, &u.PushToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// DeductCredit decrements the balance by one and returns the remaining
// balance. The guard clause keeps the balance from going negative even if a
// caller skips the HasCredits check.
func (r *userAccountRepo) DeductCredit(ctx context.Context, tx repository.Tx, id string) (int, error) {
	const q = `
UPDATE users
SET credits = credits - 1, updated_at = $2
WHERE id = $1 AND credits > 0
RETURNING credits;`

	row, err := pickRow(ctx, r.pool, tx, q, id, time.Now())
	if err != nil {
		return 0, err
	}
	var remaining int
	if err := row.Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return remaining, nil
}
