package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RedemptionPending  = "pending"
	RedemptionRedeemed = "redeemed"
	RedemptionUsed     = "used"
)

type Reward struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PartnerName   *string   `json:"partner_name,omitempty"`
	PointsCost    int       `json:"points_cost"`
	StockQuantity int       `json:"stock_quantity"`
	IsAvailable   bool      `json:"is_available"`
	ImageURL      *string   `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
}

type RewardRedemption struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	RewardID       uuid.UUID `json:"reward_id"`
	PointsSpent    int       `json:"points_spent"`
	Status         string    `json:"status"` // "pending" | "redeemed" | "used"
	RedemptionCode string    `json:"redemption_code"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type RedeemRequest struct {
	RewardID string `json:"reward_id"`
}

type UpdateRedemptionStatusRequest struct {
	Status string `json:"status"`
}

type CreateRewardRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	PartnerName   *string `json:"partner_name,omitempty"`
	PointsCost    int     `json:"points_cost"`
	StockQuantity int     `json:"stock_quantity"`
	IsAvailable   bool    `json:"is_available"`
	ImageURL      *string `json:"image_url"`
}
