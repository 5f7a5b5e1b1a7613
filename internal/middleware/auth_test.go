package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestJWTAuth_Roundtrip(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()

	token, err := auth.GenerateAccessToken(userID, "walker@example.com", "walker")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotID uuid.UUID
	var gotRole string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotRole = GetUserRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if gotID != userID {
		t.Fatalf("expected user id %s in context, got %s", userID, gotID)
	}
	if gotRole != "walker" {
		t.Fatalf("expected role walker, got %q", gotRole)
	}
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	token, err := NewJWTAuth("other-secret").GenerateAccessToken(uuid.New(), "x@y.z", "walker")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	auth := NewJWTAuth("test-secret")
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	run := func(role string) int {
		token, err := auth.GenerateAccessToken(uuid.New(), "x@y.z", role)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		handler := auth.Middleware(auth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})))

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := run("walker"); code != http.StatusForbidden {
		t.Fatalf("expected 403 for walker, got %d", code)
	}
	if code := run("admin"); code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin, got %d", code)
	}
}
