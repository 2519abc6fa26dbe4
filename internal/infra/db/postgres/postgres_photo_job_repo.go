package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/repository"
)

var _ repository.PhotoJobRepository = (*photoJobRepo)(nil)

type photoJobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewPhotoJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *photoJobRepo {
	return &photoJobRepo{
		pool: pool,
		tm:   tm,
	}
}

func (r *photoJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.PhotoJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.Status == "" {
		job.Status = model.PhotoJobStatusProcessing
	}

	const q = `
INSERT INTO photo_jobs (id, user_id, original_url, status, created_at)
VALUES ($1, $2, $3, $4, $5);`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.UserID, job.OriginalURL, string(job.Status), job.CreatedAt)
	return err
}

const photoJobColumns = `
id, user_id, original_url, status, result_url, theme, analysis,
last_error, credit_error, created_at, picked_at, processed_at`

func (r *photoJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PhotoJob, error) {
	const q = `SELECT ` + photoJobColumns + ` FROM photo_jobs WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPhotoJob(row)
}

// FetchAndMarkPicked claims the oldest unclaimed job. The SKIP LOCKED clause
// keeps concurrent workers from blocking on each other's claims.
func (r *photoJobRepo) FetchAndMarkPicked(ctx context.Context) (*model.PhotoJob, error) {
	var job *model.PhotoJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + photoJobColumns + `
FROM photo_jobs
WHERE status = 'processing' AND picked_at IS NULL
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}
		fetched, err := scanPhotoJob(row)
		if err != nil {
			return err
		}

		now := time.Now()
		if _, err := execSQL(ctx, r.pool, tx,
			`UPDATE photo_jobs SET picked_at = $2 WHERE id = $1;`, fetched.ID, now); err != nil {
			return err
		}
		fetched.PickedAt = &now

		job = fetched
		return nil
	})

	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

func (r *photoJobRepo) MarkDone(ctx context.Context, tx repository.Tx, id, resultURL, theme, analysis, creditError string, processedAt time.Time) error {
	const q = `
UPDATE photo_jobs
SET status = 'done', result_url = $2, theme = $3, analysis = $4,
    credit_error = $5, processed_at = $6
WHERE id = $1 AND status = 'processing';`

	tag, err := execSQL(ctx, r.pool, tx, q, id, resultURL, theme, analysis, creditError, processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobAlreadyFinished
	}
	return nil
}

func (r *photoJobRepo) MarkError(ctx context.Context, id, errMsg string, processedAt time.Time) error {
	const q = `
UPDATE photo_jobs
SET status = 'error', last_error = $2, processed_at = $3
WHERE id = $1 AND status = 'processing';`

	tag, err := execSQL(ctx, r.pool, repository.NoTX, q, id, errMsg, processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobAlreadyFinished
	}
	return nil
}

func (r *photoJobRepo) ListCreditErrors(ctx context.Context, tx repository.Tx, limit int) ([]*model.PhotoJob, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + photoJobColumns + `
FROM photo_jobs
WHERE status = 'done' AND credit_error <> ''
ORDER BY processed_at
LIMIT $1;`

	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PhotoJob
	for rows.Next() {
		var (
			j         model.PhotoJob
			statusStr string
		)
		if err := rows.Scan(
			&j.ID, &j.UserID, &j.OriginalURL, &statusStr, &j.ResultURL, &j.Theme,
			&j.Analysis, &j.Error, &j.CreditError, &j.CreatedAt, &j.PickedAt, &j.ProcessedAt,
		); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		j.Status = model.PhotoJobStatus(statusStr)
		out = append(out, &j)
	}
	return out, rows.Err()
}

// ReclaimStale releases jobs whose claim outlived its worker. Clearing
// picked_at puts them back in the poll loop's claim predicate.
func (r *photoJobRepo) ReclaimStale(ctx context.Context, pickedBefore time.Time) (int, error) {
	const q = `
UPDATE photo_jobs
SET picked_at = NULL
WHERE status = 'processing' AND picked_at IS NOT NULL AND picked_at < $1;`

	tag, err := execSQL(ctx, r.pool, repository.NoTX, q, pickedBefore)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *photoJobRepo) ClearCreditError(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx,
		`UPDATE photo_jobs SET credit_error = '' WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPhotoJob(row pgx.Row) (*model.PhotoJob, error) {
	var (
		j         model.PhotoJob
		statusStr string
	)
	err := row.Scan(
		&j.ID, &j.UserID, &j.OriginalURL, &statusStr, &j.ResultURL, &j.Theme,
		&j.Analysis, &j.Error, &j.CreditError, &j.CreatedAt, &j.PickedAt, &j.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.Status = model.PhotoJobStatus(statusStr)
	return &j, nil
}
