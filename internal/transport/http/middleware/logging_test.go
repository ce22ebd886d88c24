package middleware

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/diazhh/erp-ace-sub000/internal/auth"
)

func TestLoggerEmitsRouteAndActor(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	router := chi.NewRouter()
	router.Use(Logger)
	router.Get("/loans/{loanID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/loans/l1", nil)
	req = req.WithContext(context.WithValue(req.Context(), ctxKeyUser, auth.UserContext{UserID: "user-1"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	line := buf.String()
	if !strings.Contains(line, `"route":"/loans/{loanID}"`) {
		t.Fatalf("expected route pattern in log line, got %s", line)
	}
	if !strings.Contains(line, `"actor":"user-1"`) {
		t.Fatalf("expected actor in log line, got %s", line)
	}
}

func TestLoggerOmitsActorForAnonymousRequests(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	line := buf.String()
	if strings.Contains(line, `"actor"`) {
		t.Fatalf("did not expect actor for anonymous request, got %s", line)
	}
	if !strings.Contains(line, `"status":404`) {
		t.Fatalf("expected status in log line, got %s", line)
	}
}
