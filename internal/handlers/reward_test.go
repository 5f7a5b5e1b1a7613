package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"historando-backend/internal/models"
	"historando-backend/internal/services"
)

type stubRewardService struct {
	redemption *models.RewardRedemption
	err        error

	lastStatus string
}

func (s *stubRewardService) ListAvailable(ctx context.Context) ([]*models.Reward, error) {
	return nil, s.err
}

func (s *stubRewardService) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*models.RewardRedemption, error) {
	return s.redemption, s.err
}

func (s *stubRewardService) UpdateStatus(ctx context.Context, redemptionID uuid.UUID, status string) (*models.RewardRedemption, error) {
	s.lastStatus = status
	return s.redemption, s.err
}

func (s *stubRewardService) ListRedemptions(ctx context.Context, userID uuid.UUID) ([]*models.RewardRedemption, error) {
	if s.redemption == nil {
		return nil, s.err
	}
	return []*models.RewardRedemption{s.redemption}, s.err
}

func TestRewardHandler_Redeem_Success(t *testing.T) {
	rewardID := uuid.New()
	redemption := &models.RewardRedemption{
		ID:             uuid.New(),
		RewardID:       rewardID,
		PointsSpent:    300,
		Status:         models.RedemptionPending,
		RedemptionCode: "RWD-1760000000000-AB12CD3",
	}
	h := NewRewardHandler(&stubRewardService{redemption: redemption}, nil)

	body := `{"reward_id":"` + rewardID.String() + `"}`
	rr := httptest.NewRecorder()
	h.Redeem(rr, authedRequest(http.MethodPost, "/api/v1/rewards/redeem", body, uuid.New()))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	var got models.RewardRedemption
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.RedemptionCode != redemption.RedemptionCode {
		t.Fatalf("expected code %q, got %q", redemption.RedemptionCode, got.RedemptionCode)
	}
	if got.Status != models.RedemptionPending {
		t.Fatalf("new redemption should be pending, got %q", got.Status)
	}
}

func TestRewardHandler_Redeem_InsufficientPoints(t *testing.T) {
	stub := &stubRewardService{err: &services.InvalidStateError{Message: "Insufficient points: you have 120, reward costs 300"}}
	h := NewRewardHandler(stub, nil)

	body := `{"reward_id":"` + uuid.New().String() + `"}`
	rr := httptest.NewRecorder()
	h.Redeem(rr, authedRequest(http.MethodPost, "/api/v1/rewards/redeem", body, uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "INVALID_STATE" {
		t.Fatalf("expected INVALID_STATE, got %q", resp.Error.Code)
	}
}

func TestRewardHandler_Redeem_BadRewardID(t *testing.T) {
	h := NewRewardHandler(&stubRewardService{}, nil)

	rr := httptest.NewRecorder()
	h.Redeem(rr, authedRequest(http.MethodPost, "/api/v1/rewards/redeem", `{"reward_id":"not-a-uuid"}`, uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestRewardHandler_UpdateRedemptionStatus_InvalidTransition(t *testing.T) {
	stub := &stubRewardService{err: &services.InvalidStateError{Message: "Cannot change status from pending to used"}}
	h := NewRewardHandler(stub, nil)

	req := authedRequest(http.MethodPut, "/api/v1/redemptions/x/status", `{"status":"used"}`, uuid.New())
	req = withURLParam(req, "id", uuid.New().String())

	rr := httptest.NewRecorder()
	h.UpdateRedemptionStatus(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestRewardHandler_UpdateRedemptionStatus_PassesStatus(t *testing.T) {
	stub := &stubRewardService{redemption: &models.RewardRedemption{ID: uuid.New(), Status: models.RedemptionRedeemed}}
	h := NewRewardHandler(stub, nil)

	req := authedRequest(http.MethodPut, "/api/v1/redemptions/x/status", `{"status":"redeemed"}`, uuid.New())
	req = withURLParam(req, "id", uuid.New().String())

	rr := httptest.NewRecorder()
	h.UpdateRedemptionStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if stub.lastStatus != models.RedemptionRedeemed {
		t.Fatalf("expected status %q forwarded to service, got %q", models.RedemptionRedeemed, stub.lastStatus)
	}
}
