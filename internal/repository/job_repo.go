package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"historando-backend/internal/models"
)

const jobColumns = "id, user_id, type, reference_id, config_json, status, retry_count, max_retries, error_message, created_at, completed_at"

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Create inserts a queued job. The caller may pre-assign the ID so it can
// be returned to the client before the row exists.
func (r *JobRepo) Create(ctx context.Context, j *models.Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	j.Status = "pending"
	j.RetryCount = 0
	if j.MaxRetries == 0 {
		j.MaxRetries = 3
	}

	cfg := j.ConfigJSON
	if len(cfg) == 0 {
		cfg = json.RawMessage("{}")
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, user_id, type, reference_id, config_json, status, retry_count, max_retries)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
		j.ID, j.UserID, j.Type, j.ReferenceID, cfg, j.Status, j.RetryCount, j.MaxRetries,
	).Scan(&j.CreatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	j := &models.Job{}
	err := r.pool.QueryRow(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE id = $1", id,
	).Scan(
		&j.ID, &j.UserID, &j.Type, &j.ReferenceID, &j.ConfigJSON, &j.Status,
		&j.RetryCount, &j.MaxRetries, &j.ErrorMessage, &j.CreatedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if status == "completed" || status == "failed" {
		_, err := r.pool.Exec(ctx,
			"UPDATE jobs SET status = $1, completed_at = $2 WHERE id = $3",
			status, time.Now(), id)
		return err
	}
	_, err := r.pool.Exec(ctx, "UPDATE jobs SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *JobRepo) UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE jobs SET error_message = $1, retry_count = $2 WHERE id = $3",
		errMsg, retryCount, id)
	return err
}

// ListByUser returns the user's most recent jobs, newest first.
func (r *JobRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		j := &models.Job{}
		if err := rows.Scan(
			&j.ID, &j.UserID, &j.Type, &j.ReferenceID, &j.ConfigJSON, &j.Status,
			&j.RetryCount, &j.MaxRetries, &j.ErrorMessage, &j.CreatedAt, &j.CompletedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
