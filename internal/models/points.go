package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger source types. The pair (source_type, source_id) is unique per
// transaction, so a completion or redemption can never credit twice.
const (
	SourceSessionCompletion   = "session_completion"
	SourceChallengeCompletion = "challenge_completion"
	SourceRewardRedemption    = "reward_redemption"
)

type PointTransaction struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Delta       int       `json:"delta"`
	SourceType  string    `json:"source_type"`
	SourceID    uuid.UUID `json:"source_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	FullName    string    `json:"full_name"`
	AvatarURL   *string   `json:"avatar_url"`
	TotalPoints int       `json:"total_points"`
	TotalKm     float64   `json:"total_km"`
}
