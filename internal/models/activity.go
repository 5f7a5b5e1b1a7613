package models

import (
	"time"

	"github.com/google/uuid"
)

type Activity struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
	Type       string     `json:"type"`   // "walking"
	Status     string     `json:"status"` // "completed"
	DistanceKm float64    `json:"distance_km"`
	CreatedAt  time.Time  `json:"created_at"`
}
