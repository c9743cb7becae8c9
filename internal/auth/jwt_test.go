package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type memorySessions struct {
	mu      sync.Mutex
	active  map[string]time.Time
	revoked map[string]bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{
		active:  make(map[string]time.Time),
		revoked: make(map[string]bool),
	}
}

func (s *memorySessions) CreateSession(_ context.Context, tokenID, _ string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[tokenID] = expiresAt
	return nil
}

func (s *memorySessions) RevokeSession(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = true
	return nil
}

func (s *memorySessions) SessionActive(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.active[tokenID]
	if !ok || s.revoked[tokenID] {
		return false, nil
	}
	return time.Now().Before(expires), nil
}

func TestManager_IssueAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour, newMemorySessions())

	token, err := m.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	userID, tokenID, err := m.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Verify() userID = %q, want %q", userID, "user-1")
	}
	if tokenID == "" {
		t.Error("Verify() returned empty token id")
	}
}

func TestManager_VerifyRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour, newMemorySessions())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, _, err := m.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) error = %v, want %v", token, err, ErrInvalidToken)
		}
	}
}

func TestManager_VerifyRejectsWrongSecret(t *testing.T) {
	sessions := newMemorySessions()
	issuer := NewManager("secret-a", time.Hour, sessions)
	verifier := NewManager("secret-b", time.Hour, sessions)

	token, err := issuer.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestManager_RevokeInvalidatesToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour, newMemorySessions())

	token, err := m.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := m.Revoke(context.Background(), token); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	if _, _, err := m.Verify(context.Background(), token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Verify() after revoke error = %v, want %v", err, ErrTokenRevoked)
	}

	// Revoking an already dead token stays a no-op.
	if err := m.Revoke(context.Background(), token); err != nil {
		t.Errorf("second Revoke() error = %v, want nil", err)
	}
}

func TestManager_Middleware(t *testing.T) {
	m := NewManager("test-secret", time.Hour, newMemorySessions())

	token, err := m.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var gotOwner string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner, _ = OwnerIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
		wantOwner  string
	}{
		{name: "bearer header", header: "Bearer " + token, wantStatus: http.StatusNoContent, wantOwner: "user-1"},
		{name: "session cookie", cookie: token, wantStatus: http.StatusNoContent, wantOwner: "user-1"},
		{name: "no credentials", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOwner = ""
			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotOwner != tt.wantOwner {
				t.Errorf("owner = %q, want %q", gotOwner, tt.wantOwner)
			}
		})
	}
}

func TestOwnerIDFromContext_Missing(t *testing.T) {
	if _, err := OwnerIDFromContext(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("OwnerIDFromContext() error = %v, want %v", err, ErrNoIdentity)
	}
}
