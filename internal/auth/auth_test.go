package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// --- GenerateToken tests ---

func TestGenerateToken_PrefixAndLength(t *testing.T) {
	plaintext, hash, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	if !strings.HasPrefix(plaintext, TokenPrefix) {
		t.Errorf("token should start with %q, got %q", TokenPrefix, plaintext)
	}

	// "dwh_" (4) + 43 random chars = 47
	if len(plaintext) != 47 {
		t.Errorf("expected token length 47, got %d", len(plaintext))
	}

	if hash != HashKey(plaintext) {
		t.Error("returned hash should match HashKey(plaintext)")
	}
}

func TestGenerateToken_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		plaintext, _, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken() error: %v", err)
		}
		if seen[plaintext] {
			t.Fatalf("duplicate token generated: %s", plaintext)
		}
		seen[plaintext] = true
	}
}

// --- HashKey tests ---

func TestHashKey_Deterministic(t *testing.T) {
	if HashKey("dwh_abc") != HashKey("dwh_abc") {
		t.Error("HashKey should be deterministic")
	}
	if HashKey("a") == HashKey("b") {
		t.Error("different inputs should hash differently")
	}
	if len(HashKey("x")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(HashKey("x")))
	}
}

func TestKeyMatches(t *testing.T) {
	tests := []struct {
		presented, want string
		match           bool
	}{
		{"secret", "secret", true},
		{"secret", "other", false},
		{"", "", false},
		{"secret", "", false},
	}
	for _, tt := range tests {
		if got := KeyMatches(tt.presented, tt.want); got != tt.match {
			t.Errorf("KeyMatches(%q, %q) = %v, want %v", tt.presented, tt.want, got, tt.match)
		}
	}
}

// --- BearerToken tests ---

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Token abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(req); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

// --- AdminKeyMiddleware tests ---

func TestAdminKeyMiddleware(t *testing.T) {
	adminKey := "super-secret-admin-key"

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantError  bool
	}{
		{
			name:       "valid admin key",
			authHeader: "Bearer " + adminKey,
			wantStatus: http.StatusOK,
			wantError:  false,
		},
		{
			name:       "wrong admin key",
			authHeader: "Bearer wrong-key",
			wantStatus: http.StatusUnauthorized,
			wantError:  true,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
			wantError:  true,
		},
		{
			name:       "malformed header",
			authHeader: "Basic " + adminKey,
			wantStatus: http.StatusUnauthorized,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			handler := AdminKeyMiddleware(adminKey)(okHandler)
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}

			if tt.wantError {
				assertJSONError(t, rr)
			}
		})
	}
}

func TestAdminKeyMiddleware_EmptyKeyRejectsAll(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer ")
	rr := httptest.NewRecorder()
	AdminKeyMiddleware("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})).ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

// assertJSONError checks that the response body contains the expected error JSON structure.
func assertJSONError(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()

	ct := rr.Header().Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error.Code != "unauthorized" {
		t.Errorf("expected error code 'unauthorized', got %q", resp.Error.Code)
	}
	if resp.Error.Message == "" {
		t.Error("expected non-empty error message")
	}
}
