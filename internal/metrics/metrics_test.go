package metrics

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestObserveDocumentOp(t *testing.T) {
	m := New()
	m.ObserveDocumentOp("get", "account", nil, 2*time.Millisecond)
	m.ObserveDocumentOp("get", "account", errors.New("boom"), time.Millisecond)
	m.ObserveDocumentOp("query", "project", nil, 5*time.Millisecond)

	s, err := m.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Documents.TotalOps != 3 {
		t.Errorf("expected 3 ops, got %v", s.Documents.TotalOps)
	}
	if s.Documents.Errors != 1 {
		t.Errorf("expected 1 error, got %v", s.Documents.Errors)
	}
	if s.Documents.P95Latency <= 0 {
		t.Errorf("expected positive p95, got %v", s.Documents.P95Latency)
	}
}

func TestAuthSummary(t *testing.T) {
	m := New()
	m.IncAuthEvent("sign_in", "success")
	m.IncAuthEvent("sign_in", "success")
	m.IncAuthEvent("sign_in", "auth/invalid-credential")
	m.IncAuthEvent("register", "success")
	m.IncAuthEvent("register", "auth/email-already-in-use")
	m.IncRateLimitRejection("sign_in")

	s, err := m.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Auth.SignIns != 2 {
		t.Errorf("expected 2 sign-ins, got %v", s.Auth.SignIns)
	}
	if s.Auth.SignInFailures != 1 {
		t.Errorf("expected 1 sign-in failure, got %v", s.Auth.SignInFailures)
	}
	if s.Auth.Registrations != 1 {
		t.Errorf("expected 1 registration, got %v", s.Auth.Registrations)
	}
	if s.Auth.RateLimitRejections != 1 {
		t.Errorf("expected 1 rejection, got %v", s.Auth.RateLimitRejections)
	}
}

func TestSessionsAndNotifications(t *testing.T) {
	m := New()
	m.ActiveSessions.Set(4)
	m.IncNotification("password-reset", nil)
	m.IncNotification("password-reset", errors.New("redis down"))

	s, err := m.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Sessions.Active != 4 {
		t.Errorf("expected 4 sessions, got %v", s.Sessions.Active)
	}
	if s.Notifications.Sent != 1 || s.Notifications.Failed != 1 {
		t.Errorf("unexpected notifications %+v", s.Notifications)
	}
}

func TestDBPoolCollector(t *testing.T) {
	m := New()
	m.RegisterDBPoolCollector(func() PoolStats {
		return PoolStats{Total: 5, Idle: 3, Acquired: 2, Max: 10}
	})

	s, err := m.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.DB.TotalConns != 5 || s.DB.IdleConns != 3 || s.DB.AcquiredConns != 2 || s.DB.MaxConns != 10 {
		t.Errorf("unexpected db info %+v", s.DB)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/projects/1", "/projects/2", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	s, err := m.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.HTTP.TotalRequests != 3 {
		t.Errorf("expected 3 requests, got %v", s.HTTP.TotalRequests)
	}
	if got := s.HTTP.ErrorRate; got < 0.66 || got > 0.67 {
		t.Errorf("expected error rate 2/3, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Exposition().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `path_pattern="/projects/{id}"`) {
		t.Errorf("expected route pattern label in exposition")
	}
}

func TestHandlerServesJSON(t *testing.T) {
	m := New()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}
	var s Summary
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Server.StartTime == 0 {
		t.Error("expected start time to be set")
	}
}

func TestHistogramPercentileEmpty(t *testing.T) {
	if got := histogramPercentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}
