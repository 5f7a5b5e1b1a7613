package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"historando-backend/internal/models"
)

type RewardRepo struct {
	pool *pgxpool.Pool
}

func NewRewardRepo(pool *pgxpool.Pool) *RewardRepo {
	return &RewardRepo{pool: pool}
}

const rewardColumns = `id, name, description, partner_name, points_cost, stock_quantity, is_available, image_url, created_at`

func (r *RewardRepo) scanReward(row interface{ Scan(dest ...any) error }) (*models.Reward, error) {
	reward := &models.Reward{}
	err := row.Scan(
		&reward.ID, &reward.Name, &reward.Description, &reward.PartnerName,
		&reward.PointsCost, &reward.StockQuantity, &reward.IsAvailable, &reward.ImageURL, &reward.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reward, nil
}

func (r *RewardRepo) Create(ctx context.Context, reward *models.Reward) error {
	reward.ID = uuid.New()
	query := `
		INSERT INTO rewards (id, name, description, partner_name, points_cost, stock_quantity, is_available, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		reward.ID, reward.Name, reward.Description, reward.PartnerName,
		reward.PointsCost, reward.StockQuantity, reward.IsAvailable, reward.ImageURL,
	).Scan(&reward.CreatedAt)
}

func (r *RewardRepo) ListAvailable(ctx context.Context) ([]*models.Reward, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+rewardColumns+` FROM rewards WHERE is_available = TRUE ORDER BY points_cost ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rewards := make([]*models.Reward, 0)
	for rows.Next() {
		reward, err := r.scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, rows.Err()
}

func (r *RewardRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	return r.scanReward(r.pool.QueryRow(ctx,
		`SELECT `+rewardColumns+` FROM rewards WHERE id = $1`, id))
}

// GetForUpdate locks the reward row so the stock check and decrement are
// serialized against concurrent redemptions.
func (r *RewardRepo) GetForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*models.Reward, error) {
	return r.scanReward(q.QueryRow(ctx,
		`SELECT `+rewardColumns+` FROM rewards WHERE id = $1 FOR UPDATE`, id))
}

// DecrementStock takes exactly one unit; the guard keeps stock non-negative
// even if a caller skipped the row lock.
func (r *RewardRepo) DecrementStock(ctx context.Context, q Querier, id uuid.UUID) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE rewards
		SET stock_quantity = stock_quantity - 1
		WHERE id = $1 AND stock_quantity > 0
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RewardRepo) Update(ctx context.Context, reward *models.Reward) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE rewards
		SET name = $1, description = $2, partner_name = $3, points_cost = $4,
			stock_quantity = $5, is_available = $6, image_url = $7
		WHERE id = $8`,
		reward.Name, reward.Description, reward.PartnerName, reward.PointsCost,
		reward.StockQuantity, reward.IsAvailable, reward.ImageURL, reward.ID,
	)
	return err
}

// ──── Redemptions ────

const redemptionColumns = `id, user_id, reward_id, points_spent, status, redemption_code, created_at, updated_at`

func (r *RewardRepo) scanRedemption(row interface{ Scan(dest ...any) error }) (*models.RewardRedemption, error) {
	red := &models.RewardRedemption{}
	err := row.Scan(
		&red.ID, &red.UserID, &red.RewardID, &red.PointsSpent,
		&red.Status, &red.RedemptionCode, &red.CreatedAt, &red.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return red, nil
}

func (r *RewardRepo) CreateRedemption(ctx context.Context, q Querier, red *models.RewardRedemption) error {
	red.ID = uuid.New()
	red.Status = models.RedemptionPending

	query := `
		INSERT INTO reward_redemptions (id, user_id, reward_id, points_spent, status, redemption_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return q.QueryRow(ctx, query,
		red.ID, red.UserID, red.RewardID, red.PointsSpent, red.Status, red.RedemptionCode,
	).Scan(&red.CreatedAt, &red.UpdatedAt)
}

func (r *RewardRepo) GetRedemptionByID(ctx context.Context, id uuid.UUID) (*models.RewardRedemption, error) {
	return r.scanRedemption(r.pool.QueryRow(ctx,
		`SELECT `+redemptionColumns+` FROM reward_redemptions WHERE id = $1`, id))
}

// UpdateRedemptionStatus moves a redemption from one status to the next.
// The WHERE clause re-checks the current status so a concurrent update
// cannot be overwritten; false means the row already moved on.
func (r *RewardRepo) UpdateRedemptionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE reward_redemptions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RewardRepo) ListRedemptionsByUser(ctx context.Context, userID uuid.UUID) ([]*models.RewardRedemption, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+redemptionColumns+` FROM reward_redemptions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	redemptions := make([]*models.RewardRedemption, 0)
	for rows.Next() {
		red, err := r.scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		redemptions = append(redemptions, red)
	}
	return redemptions, rows.Err()
}
