// Package auth issues and verifies the JWTs that protect the API, and runs
// the Google sign-in flow that provisions accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName carries the token for browser sessions. API clients may send
// the same token as a Bearer header instead.
const CookieName = "fintrack_token"

type ctxKey string

const ownerIDKey ctxKey = "owner_id"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
	ErrNoIdentity   = errors.New("no authenticated user in context")
)

// SessionStore is the revocation surface the manager needs. The SQLite
// repository satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, tokenID, userID string, expiresAt time.Time) error
	RevokeSession(ctx context.Context, tokenID string) error
	SessionActive(ctx context.Context, tokenID string) (bool, error)
}

// Manager signs HS256 tokens and checks them against the session store, so a
// logout invalidates a token before its expiry.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	sessions SessionStore
}

func NewManager(secret string, ttl time.Duration, sessions SessionStore) *Manager {
	return &Manager{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: sessions,
	}
}

// Issue signs a token for userID and records its id in the session store.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.ttl)
	tokenID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := m.sessions.CreateSession(ctx, tokenID, userID, expiresAt); err != nil {
		return "", fmt.Errorf("record session: %w", err)
	}

	return token, nil
}

// Verify checks signature, expiry, and revocation, returning the user id and
// the token id.
func (m *Manager) Verify(ctx context.Context, tokenStr string) (userID, tokenID string, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" || claims.ID == "" {
		return "", "", ErrInvalidToken
	}

	active, err := m.sessions.SessionActive(ctx, claims.ID)
	if err != nil {
		return "", "", fmt.Errorf("check session: %w", err)
	}
	if !active {
		return "", "", ErrTokenRevoked
	}

	return claims.Subject, claims.ID, nil
}

// Revoke invalidates the session behind a token. Invalid tokens revoke to a
// no-op so logout never fails.
func (m *Manager) Revoke(ctx context.Context, tokenStr string) error {
	_, tokenID, err := m.Verify(ctx, tokenStr)
	if err != nil {
		return nil
	}
	return m.sessions.RevokeSession(ctx, tokenID)
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// TokenFromRequest extracts the token from the Bearer header or, failing
// that, the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware rejects unauthenticated requests and puts the owner id into the
// request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := TokenFromRequest(r)
		if tokenStr == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		userID, _, err := m.Verify(r.Context(), tokenStr)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerIDFromContext returns the authenticated user id set by Middleware.
func OwnerIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(ownerIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoIdentity
	}
	return id, nil
}

// ContextWithOwnerID is used by tests and internal callers that bypass the
// middleware.
func ContextWithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}
