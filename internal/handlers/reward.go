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

type rewardService interface {
	ListAvailable(ctx context.Context) ([]*models.Reward, error)
	Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*models.RewardRedemption, error)
	UpdateStatus(ctx context.Context, redemptionID uuid.UUID, status string) (*models.RewardRedemption, error)
	ListRedemptions(ctx context.Context, userID uuid.UUID) ([]*models.RewardRedemption, error)
}

type RewardHandler struct {
	rewards    rewardService
	rewardRepo *repository.RewardRepo
}

func NewRewardHandler(rewards rewardService, rewardRepo *repository.RewardRepo) *RewardHandler {
	return &RewardHandler{rewards: rewards, rewardRepo: rewardRepo}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewards.ListAvailable(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rewards": rewards})
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req models.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid reward ID", r))
		return
	}

	redemption, err := h.rewards.Redeem(r.Context(), middleware.GetUserID(r.Context()), rewardID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, redemption)
}

func (h *RewardHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	redemptions, err := h.rewards.ListRedemptions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"redemptions": redemptions})
}

// UpdateRedemptionStatus is used by partner/admin staff to mark a code
// redeemed at the counter and later used.
func (h *RewardHandler) UpdateRedemptionStatus(w http.ResponseWriter, r *http.Request) {
	redemptionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid redemption ID", r))
		return
	}

	var req models.UpdateRedemptionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	redemption, err := h.rewards.UpdateStatus(r.Context(), redemptionID, req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, redemption)
}

func (h *RewardHandler) CreateReward(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "Name is required"
	}
	if req.PointsCost <= 0 {
		fields["points_cost"] = "Points cost must be positive"
	}
	if req.StockQuantity < 0 {
		fields["stock_quantity"] = "Stock cannot be negative"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	reward := &models.Reward{
		Name:          req.Name,
		Description:   req.Description,
		PartnerName:   req.PartnerName,
		PointsCost:    req.PointsCost,
		StockQuantity: req.StockQuantity,
		IsAvailable:   req.IsAvailable,
		ImageURL:      req.ImageURL,
	}

	if err := h.rewardRepo.Create(r.Context(), reward); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create reward", r))
		return
	}

	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) UpdateReward(w http.ResponseWriter, r *http.Request) {
	rewardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid reward ID", r))
		return
	}

	reward, err := h.rewardRepo.GetByID(r.Context(), rewardID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Reward not found", r))
		return
	}

	var req models.CreateRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	reward.Name = req.Name
	reward.Description = req.Description
	reward.PartnerName = req.PartnerName
	reward.PointsCost = req.PointsCost
	reward.StockQuantity = req.StockQuantity
	reward.IsAvailable = req.IsAvailable
	reward.ImageURL = req.ImageURL

	if err := h.rewardRepo.Update(r.Context(), reward); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update reward", r))
		return
	}

	writeJSON(w, http.StatusOK, reward)
}
