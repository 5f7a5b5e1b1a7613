package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"historando-backend/internal/models"
)

type ChallengeRepo struct {
	pool *pgxpool.Pool
}

func NewChallengeRepo(pool *pgxpool.Pool) *ChallengeRepo {
	return &ChallengeRepo{pool: pool}
}

const challengeColumns = `id, title, description, type, target_value, reward_points, is_active, starts_at, ends_at, created_at`

func (r *ChallengeRepo) scanChallenge(row interface{ Scan(dest ...any) error }) (*models.Challenge, error) {
	c := &models.Challenge{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Type, &c.TargetValue,
		&c.RewardPoints, &c.IsActive, &c.StartsAt, &c.EndsAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	c.ID = uuid.New()
	query := `
		INSERT INTO challenges (id, title, description, type, target_value, reward_points, is_active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.Title, c.Description, c.Type, c.TargetValue,
		c.RewardPoints, c.IsActive, c.StartsAt, c.EndsAt,
	).Scan(&c.CreatedAt)
}

func (r *ChallengeRepo) List(ctx context.Context, activeOnly bool) ([]*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	challenges := make([]*models.Challenge, 0)
	for rows.Next() {
		c, err := r.scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (r *ChallengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	return r.scanChallenge(r.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
}

// ──── Progress ────

const progressColumns = `id, user_id, challenge_id, activity_id, status, points_earned, started_at, completed_at`

func (r *ChallengeRepo) scanProgress(row interface{ Scan(dest ...any) error }) (*models.ChallengeProgress, error) {
	p := &models.ChallengeProgress{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.ChallengeID, &p.ActivityID,
		&p.Status, &p.PointsEarned, &p.StartedAt, &p.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ChallengeRepo) CreateProgress(ctx context.Context, p *models.ChallengeProgress) error {
	p.ID = uuid.New()
	p.Status = models.ProgressStarted
	p.PointsEarned = 0

	query := `
		INSERT INTO challenge_progress (id, user_id, challenge_id, activity_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING started_at`

	return r.pool.QueryRow(ctx, query,
		p.ID, p.UserID, p.ChallengeID, p.ActivityID, p.Status,
	).Scan(&p.StartedAt)
}

func (r *ChallengeRepo) GetProgressByID(ctx context.Context, id uuid.UUID) (*models.ChallengeProgress, error) {
	return r.scanProgress(r.pool.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM challenge_progress WHERE id = $1`, id))
}

// FinalizeProgress records the terminal status exactly once; the status
// guard rejects a second completion (0 rows affected).
func (r *ChallengeRepo) FinalizeProgress(ctx context.Context, q Querier, progressID uuid.UUID, status string, pointsEarned int, at time.Time) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE challenge_progress
		SET status = $1, points_earned = $2, completed_at = $3
		WHERE id = $4 AND status = 'started'
	`, status, pointsEarned, at, progressID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ChallengeRepo) ListProgressByUser(ctx context.Context, userID uuid.UUID) ([]*models.ChallengeProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+progressColumns+` FROM challenge_progress WHERE user_id = $1 ORDER BY started_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*models.ChallengeProgress, 0)
	for rows.Next() {
		p, err := r.scanProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
