package models

import (
	"time"

	"github.com/google/uuid"
)

type Parcours struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	City             string    `json:"city"`
	DistanceKm       float64   `json:"distance_km"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	Difficulty       string    `json:"difficulty"` // "easy" | "moderate" | "hard"
	CompletionBonus  int       `json:"completion_bonus"`
	IsPublished      bool      `json:"is_published"`
	ImageURL         *string   `json:"image_url"`
	CreatedAt        time.Time `json:"created_at"`
	POICount         int       `json:"poi_count"`
	POIs             []*POI    `json:"pois,omitempty"`
}

type POI struct {
	ID          uuid.UUID `json:"id"`
	ParcoursID  uuid.UUID `json:"parcours_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Position    int       `json:"position"`
	QRToken     string    `json:"qr_token"`
	QRImageURL  *string   `json:"qr_image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateParcoursRequest struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	City             string  `json:"city"`
	DistanceKm       float64 `json:"distance_km"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	Difficulty       string  `json:"difficulty"`
	CompletionBonus  int     `json:"completion_bonus"`
	IsPublished      bool    `json:"is_published"`
	ImageURL         *string `json:"image_url"`
}

type CreatePOIRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Position    int     `json:"position"`
}
