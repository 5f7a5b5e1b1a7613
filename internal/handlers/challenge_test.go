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

type stubChallengeService struct {
	progress *models.ChallengeProgress
	err      error
}

func (s *stubChallengeService) List(ctx context.Context) ([]*models.Challenge, error) {
	return nil, s.err
}

func (s *stubChallengeService) Start(ctx context.Context, userID uuid.UUID, req models.StartChallengeRequest) (*models.ChallengeProgress, error) {
	return s.progress, s.err
}

func (s *stubChallengeService) Complete(ctx context.Context, progressID, userID uuid.UUID, req models.CompleteChallengeRequest) (*models.ChallengeProgress, error) {
	return s.progress, s.err
}

func (s *stubChallengeService) ListProgress(ctx context.Context, userID uuid.UUID) ([]*models.ChallengeProgress, error) {
	if s.progress == nil {
		return nil, s.err
	}
	return []*models.ChallengeProgress{s.progress}, s.err
}

func TestChallengeHandler_Start_ForeignActivity(t *testing.T) {
	stub := &stubChallengeService{err: &services.InvalidStateError{Message: "Activity does not belong to you"}}
	h := NewChallengeHandler(stub, nil)

	body := `{"challenge_id":"` + uuid.New().String() + `","activity_id":"` + uuid.New().String() + `"}`
	rr := httptest.NewRecorder()
	h.Start(rr, authedRequest(http.MethodPost, "/api/v1/challenges/start", body, uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "INVALID_STATE" {
		t.Fatalf("expected INVALID_STATE, got %q", resp.Error.Code)
	}
}

func TestChallengeHandler_Complete_FailedEarnsNothing(t *testing.T) {
	progress := &models.ChallengeProgress{
		ID:           uuid.New(),
		Status:       models.ProgressFailed,
		PointsEarned: 0,
	}
	h := NewChallengeHandler(&stubChallengeService{progress: progress}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/challenge-progress/x/complete",
		`{"status":"failed","points_earned":50}`, uuid.New())
	req = withURLParam(req, "id", progress.ID.String())

	rr := httptest.NewRecorder()
	h.Complete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var got models.ChallengeProgress
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.PointsEarned != 0 {
		t.Fatalf("failed challenge must not award points, got %d", got.PointsEarned)
	}
	if got.Status != models.ProgressFailed {
		t.Fatalf("expected failed status, got %q", got.Status)
	}
}

func TestChallengeHandler_Complete_AlreadySettled(t *testing.T) {
	stub := &stubChallengeService{err: &services.InvalidStateError{Message: "Challenge progress is already settled"}}
	h := NewChallengeHandler(stub, nil)

	req := authedRequest(http.MethodPost, "/api/v1/challenge-progress/x/complete",
		`{"status":"completed","points_earned":100}`, uuid.New())
	req = withURLParam(req, "id", uuid.New().String())

	rr := httptest.NewRecorder()
	h.Complete(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
