package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"historando-backend/internal/middleware"
	"historando-backend/internal/models"
	"historando-backend/internal/services"
)

type stubSessionService struct {
	session    *models.ParcoursSession
	completion *models.SessionCompletion
	err        error

	startCalls int
	lastUserID uuid.UUID
}

func (s *stubSessionService) Start(ctx context.Context, userID uuid.UUID, req models.StartSessionRequest) (*models.ParcoursSession, error) {
	s.startCalls++
	s.lastUserID = userID
	return s.session, s.err
}

func (s *stubSessionService) Get(ctx context.Context, sessionID, userID uuid.UUID) (*models.ParcoursSession, error) {
	return s.session, s.err
}

func (s *stubSessionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ParcoursSession, error) {
	if s.session == nil {
		return nil, s.err
	}
	return []*models.ParcoursSession{s.session}, s.err
}

func (s *stubSessionService) Update(ctx context.Context, sessionID, userID uuid.UUID, req models.UpdateSessionRequest) (*models.ParcoursSession, error) {
	return s.session, s.err
}

func (s *stubSessionService) Complete(ctx context.Context, sessionID, userID uuid.UUID, req models.CompleteSessionRequest) (*models.SessionCompletion, error) {
	return s.completion, s.err
}

func (s *stubSessionService) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	return s.err
}

func (s *stubSessionService) RecordPOIVisit(ctx context.Context, sessionID, userID, poiID uuid.UUID) (*models.ParcoursSession, error) {
	return s.session, s.err
}

func (s *stubSessionService) ScanQR(ctx context.Context, sessionID, userID uuid.UUID, qrToken string) (*models.ParcoursSession, error) {
	return s.session, s.err
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSessionHandler_Start_ReturnsSession(t *testing.T) {
	userID := uuid.New()
	session := &models.ParcoursSession{ID: uuid.New(), UserID: userID, ParcoursID: uuid.New()}
	stub := &stubSessionService{session: session}
	h := NewSessionHandler(stub)

	body := `{"parcours_id":"` + session.ParcoursID.String() + `","latitude":48.11,"longitude":-1.68}`
	rr := httptest.NewRecorder()
	h.Start(rr, authedRequest(http.MethodPost, "/api/v1/sessions/start", body, userID))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if stub.lastUserID != userID {
		t.Fatalf("expected user id from context, got %s", stub.lastUserID)
	}

	var got models.ParcoursSession
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != session.ID {
		t.Fatalf("expected session %s, got %s", session.ID, got.ID)
	}
}

func TestSessionHandler_Start_InvalidBody(t *testing.T) {
	h := NewSessionHandler(&stubSessionService{})

	rr := httptest.NewRecorder()
	h.Start(rr, authedRequest(http.MethodPost, "/api/v1/sessions/start", "{not-json", uuid.New()))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSessionHandler_Complete_AlreadyCompleted(t *testing.T) {
	stub := &stubSessionService{err: &services.InvalidStateError{Message: "Session is already completed"}}
	h := NewSessionHandler(stub)

	req := authedRequest(http.MethodPost, "/api/v1/sessions/x/complete",
		`{"latitude":48.11,"longitude":-1.68,"distance_covered":5200}`, uuid.New())
	req = withURLParam(req, "id", uuid.New().String())

	rr := httptest.NewRecorder()
	h.Complete(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "INVALID_STATE" {
		t.Fatalf("expected INVALID_STATE, got %q", resp.Error.Code)
	}
}

func TestSessionHandler_Complete_NotFound(t *testing.T) {
	stub := &stubSessionService{err: &services.NotFoundError{Message: "Session not found"}}
	h := NewSessionHandler(stub)

	req := authedRequest(http.MethodPost, "/api/v1/sessions/x/complete",
		`{"latitude":0,"longitude":0,"distance_covered":0}`, uuid.New())
	req = withURLParam(req, "id", uuid.New().String())

	rr := httptest.NewRecorder()
	h.Complete(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestSessionHandler_ScanQR_RequiresToken(t *testing.T) {
	h := NewSessionHandler(&stubSessionService{})

	req := authedRequest(http.MethodPost, "/api/v1/sessions/x/scan", `{"qr_token":""}`, uuid.New())
	req = withURLParam(req, "id", uuid.New().String())

	rr := httptest.NewRecorder()
	h.ScanQR(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSessionHandler_Get_InvalidID(t *testing.T) {
	h := NewSessionHandler(&stubSessionService{})

	req := authedRequest(http.MethodGet, "/api/v1/sessions/nope", "", uuid.New())
	req = withURLParam(req, "id", "nope")

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
