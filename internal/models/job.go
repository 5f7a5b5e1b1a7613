package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"` // "poi-qrcode"
	ReferenceID  uuid.UUID       `json:"reference_id"`
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type PointsEarnedEvent struct {
	Delta       int       `json:"delta"`
	TotalPoints int       `json:"total_points"`
	SourceType  string    `json:"source_type"`
	SourceID    uuid.UUID `json:"source_id"`
}

type ChallengeCompletedEvent struct {
	ProgressID   uuid.UUID `json:"progress_id"`
	ChallengeID  uuid.UUID `json:"challenge_id"`
	Status       string    `json:"status"`
	PointsEarned int       `json:"points_earned"`
}

type RedemptionIssuedEvent struct {
	RedemptionID   uuid.UUID `json:"redemption_id"`
	RewardID       uuid.UUID `json:"reward_id"`
	RedemptionCode string    `json:"redemption_code"`
	PointsSpent    int       `json:"points_spent"`
}

type QRReadyEvent struct {
	JobID      uuid.UUID `json:"job_id"`
	POIID      uuid.UUID `json:"poi_id"`
	QRImageURL string    `json:"qr_image_url"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
