package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestHandleWebSocketRejectsMissingToken(t *testing.T) {
	hub := NewHub(nil, "test-secret")

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestHandleWebSocketRejectsUnsignedToken(t *testing.T) {
	hub := NewHub(nil, "test-secret")

	// alg=none must not pass even though it parses.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	tokenStr, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+tokenStr, nil)
	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for alg=none token, got %d", rr.Code)
	}
}

func TestHandleWebSocketRejectsWrongSecret(t *testing.T) {
	hub := NewHub(nil, "test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	tokenStr, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+tokenStr, nil)
	rr := httptest.NewRecorder()
	hub.HandleWebSocket(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong secret, got %d", rr.Code)
	}
}
