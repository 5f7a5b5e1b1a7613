package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"historando-backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

// Insert takes a Querier so session completion can create the derived
// activity inside the same transaction as the ledger credit.
func (r *ActivityRepo) Insert(ctx context.Context, q Querier, a *models.Activity) error {
	a.ID = uuid.New()
	query := `
		INSERT INTO activities (id, user_id, session_id, type, status, distance_km)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return q.QueryRow(ctx, query,
		a.ID, a.UserID, a.SessionID, a.Type, a.Status, a.DistanceKm,
	).Scan(&a.CreatedAt)
}

func (r *ActivityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	a := &models.Activity{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, session_id, type, status, distance_km, created_at
		FROM activities WHERE id = $1
	`, id).Scan(&a.ID, &a.UserID, &a.SessionID, &a.Type, &a.Status, &a.DistanceKm, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ActivityRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, session_id, type, status, distance_km, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		a := &models.Activity{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.SessionID, &a.Type, &a.Status, &a.DistanceKm, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
