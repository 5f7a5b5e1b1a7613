package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"historando-backend/internal/middleware"
	"historando-backend/internal/models"
)

// sessionService is what the tracker endpoints need from
// services.SessionService; tests substitute a stub.
type sessionService interface {
	Start(ctx context.Context, userID uuid.UUID, req models.StartSessionRequest) (*models.ParcoursSession, error)
	Get(ctx context.Context, sessionID, userID uuid.UUID) (*models.ParcoursSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ParcoursSession, error)
	Update(ctx context.Context, sessionID, userID uuid.UUID, req models.UpdateSessionRequest) (*models.ParcoursSession, error)
	Complete(ctx context.Context, sessionID, userID uuid.UUID, req models.CompleteSessionRequest) (*models.SessionCompletion, error)
	Delete(ctx context.Context, sessionID, userID uuid.UUID) error
	RecordPOIVisit(ctx context.Context, sessionID, userID, poiID uuid.UUID) (*models.ParcoursSession, error)
	ScanQR(ctx context.Context, sessionID, userID uuid.UUID, qrToken string) (*models.ParcoursSession, error)
}

type SessionHandler struct {
	sessions sessionService
}

func NewSessionHandler(sessions sessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.sessions.Start(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	session, err := h.sessions.Get(r.Context(), sessionID, middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req models.UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	session, err := h.sessions.Update(r.Context(), sessionID, middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req models.CompleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	completion, err := h.sessions.Complete(r.Context(), sessionID, middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	if err := h.sessions.Delete(r.Context(), sessionID, middleware.GetUserID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session abandoned"})
}

// VisitPOI records a visit by POI ID (manual check-in flow).
func (h *SessionHandler) VisitPOI(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req struct {
		POIID string `json:"poi_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	poiID, err := uuid.Parse(req.POIID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid POI ID", r))
		return
	}

	session, err := h.sessions.RecordPOIVisit(r.Context(), sessionID, middleware.GetUserID(r.Context()), poiID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// ScanQR records a visit from a scanned QR token.
func (h *SessionHandler) ScanQR(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req struct {
		QRToken string `json:"qr_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.QRToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "QR token is required", r))
		return
	}

	session, err := h.sessions.ScanQR(r.Context(), sessionID, middleware.GetUserID(r.Context()), req.QRToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
