package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"historando-backend/internal/middleware"
	"historando-backend/internal/models"
	"historando-backend/internal/repository"
)

type challengeService interface {
	List(ctx context.Context) ([]*models.Challenge, error)
	Start(ctx context.Context, userID uuid.UUID, req models.StartChallengeRequest) (*models.ChallengeProgress, error)
	Complete(ctx context.Context, progressID, userID uuid.UUID, req models.CompleteChallengeRequest) (*models.ChallengeProgress, error)
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*models.ChallengeProgress, error)
}

type ChallengeHandler struct {
	challenges    challengeService
	challengeRepo *repository.ChallengeRepo
}

func NewChallengeHandler(challenges challengeService, challengeRepo *repository.ChallengeRepo) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges, challengeRepo: challengeRepo}
}

func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.challenges.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": challenges})
}

func (h *ChallengeHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	progress, err := h.challenges.Start(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, progress)
}

func (h *ChallengeHandler) Complete(w http.ResponseWriter, r *http.Request) {
	progressID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid progress ID", r))
		return
	}

	var req models.CompleteChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	progress, err := h.challenges.Complete(r.Context(), progressID, middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (h *ChallengeHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.challenges.ListProgress(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": progress})
}

// CreateChallenge is the admin path for publishing new challenges.
func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if req.Title == "" {
		fields["title"] = "Title is required"
	}
	switch req.Type {
	case "distance", "poi_count", "parcours_count":
	default:
		fields["type"] = "Type must be distance, poi_count, or parcours_count"
	}
	if req.TargetValue <= 0 {
		fields["target_value"] = "Target must be positive"
	}
	if req.RewardPoints < 0 {
		fields["reward_points"] = "Reward points cannot be negative"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	challenge := &models.Challenge{
		Title:        req.Title,
		Description:  req.Description,
		Type:         req.Type,
		TargetValue:  req.TargetValue,
		RewardPoints: req.RewardPoints,
		IsActive:     req.IsActive,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
	}

	if err := h.challengeRepo.Create(r.Context(), challenge); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create challenge", r))
		return
	}

	writeJSON(w, http.StatusCreated, challenge)
}
