package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"historando-backend/internal/models"
)

// PointsRepo is the append-only ledger behind users.total_points. Every
// credit or debit inserts one signed row here; UNIQUE(source_type, source_id)
// makes a repeated completion or redemption a constraint violation instead
// of a double credit.
type PointsRepo struct {
	pool *pgxpool.Pool
}

func NewPointsRepo(pool *pgxpool.Pool) *PointsRepo {
	return &PointsRepo{pool: pool}
}

func (r *PointsRepo) Insert(ctx context.Context, q Querier, t *models.PointTransaction) error {
	t.ID = uuid.New()
	query := `
		INSERT INTO point_transactions (id, user_id, delta, source_type, source_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return q.QueryRow(ctx, query,
		t.ID, t.UserID, t.Delta, t.SourceType, t.SourceID, t.Description,
	).Scan(&t.CreatedAt)
}

func (r *PointsRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.PointTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, delta, source_type, source_id, description, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]*models.PointTransaction, 0)
	for rows.Next() {
		t := &models.PointTransaction{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Delta, &t.SourceType, &t.SourceID, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
