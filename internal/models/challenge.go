package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProgressStarted   = "started"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
)

type Challenge struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Type         string     `json:"type"` // "distance" | "poi_count" | "parcours_count"
	TargetValue  float64    `json:"target_value"`
	RewardPoints int        `json:"reward_points"`
	IsActive     bool       `json:"is_active"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type ChallengeProgress struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	ChallengeID  uuid.UUID  `json:"challenge_id"`
	ActivityID   *uuid.UUID `json:"activity_id,omitempty"`
	Status       string     `json:"status"` // "started" | "completed" | "failed"
	PointsEarned int        `json:"points_earned"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type StartChallengeRequest struct {
	ChallengeID string  `json:"challenge_id"`
	ActivityID  *string `json:"activity_id,omitempty"`
}

type CompleteChallengeRequest struct {
	Status       string `json:"status"`
	PointsEarned int    `json:"points_earned"`
}

type CreateChallengeRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Type         string     `json:"type"`
	TargetValue  float64    `json:"target_value"`
	RewardPoints int        `json:"reward_points"`
	IsActive     bool       `json:"is_active"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
}
