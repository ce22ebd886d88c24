package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diazhh/erp-ace-sub000/internal/auth"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Role: auth.RoleSupervisor}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != "u1" || user.Role != auth.RoleSupervisor {
			t.Fatalf("unexpected user: %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareInvalidTokenStaysAnonymous(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context for a forged token")
		}
	}))

	forged, err := auth.GenerateToken("other-secret", auth.Claims{UserID: "u1", Role: auth.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	gate := RequireRole(auth.RoleSupervisor, auth.RoleAdmin)(next)

	anonymous := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, anonymous)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", rec.Code)
	}

	secret := "test-secret"
	operatorToken, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", Role: auth.RoleOperator}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	chain := Auth(secret)(gate)

	operator := httptest.NewRequest(http.MethodPost, "/", nil)
	operator.Header.Set("Authorization", "Bearer "+operatorToken)
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, operator)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for operator, got %d", rec.Code)
	}

	supervisorToken, err := auth.GenerateToken(secret, auth.Claims{UserID: "u2", Role: auth.RoleSupervisor}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	supervisor := httptest.NewRequest(http.MethodPost, "/", nil)
	supervisor.Header.Set("Authorization", "Bearer "+supervisorToken)
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, supervisor)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for supervisor, got %d", rec.Code)
	}
}
