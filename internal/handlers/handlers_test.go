package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"historando-backend/internal/models"
	"historando-backend/internal/services"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestHandleServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid state", &services.InvalidStateError{Message: "Session is already completed"}, http.StatusBadRequest, "INVALID_STATE"},
		{"conflict", &services.ConflictError{Message: "Email already registered"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Parcours not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid credentials"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "Admins only"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "Slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown", http.ErrBodyNotAllowed, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "req-123")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			resp := decodeError(t, rr)
			if resp.Error.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-123" {
				t.Fatalf("expected request id to be echoed, got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()

	handleServiceError(rr, req, &services.ValidationError{
		Fields: map[string]string{"distance_covered": "Distance cannot decrease"},
	})

	resp := decodeError(t, rr)
	if resp.Error.Fields["distance_covered"] != "Distance cannot decrease" {
		t.Fatalf("expected field detail to survive the round trip, got %v", resp.Error.Fields)
	}
}

func TestWriteJSON_SetsContentType(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
}
