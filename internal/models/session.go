package models

import (
	"time"

	"github.com/google/uuid"
)

type ParcoursSession struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	ParcoursID      uuid.UUID   `json:"parcours_id"`
	CurrentLat      float64     `json:"current_lat"`
	CurrentLon      float64     `json:"current_lon"`
	DistanceCovered float64     `json:"distance_covered"` // meters
	CompletionBonus int         `json:"completion_bonus"`
	IsCompleted     bool        `json:"is_completed"`
	VisitedPOIs     []uuid.UUID `json:"visited_pois"`
	StartedAt       time.Time   `json:"started_at"`
	LastUpdateAt    time.Time   `json:"last_update_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
}

type StartSessionRequest struct {
	ParcoursID string  `json:"parcours_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

type UpdateSessionRequest struct {
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	DistanceCovered *float64 `json:"distance_covered,omitempty"`
}

type CompleteSessionRequest struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	DistanceCovered float64 `json:"distance_covered"`
}

type SessionCompletion struct {
	Session      *ParcoursSession `json:"session"`
	PointsEarned int              `json:"points_earned"`
	Activity     *Activity        `json:"activity"`
}
