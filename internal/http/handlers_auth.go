package http

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/auth"
)

const stateCookieName = "fintrack_oauth_state"

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if s.google == nil || s.users == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "google sign-in not configured"})
		return
	}

	state := randomState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.google.AuthURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if s.google == nil || s.users == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "google sign-in not configured"})
		return
	}

	if errStr := r.URL.Query().Get("error"); errStr != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "authorization denied: " + errStr})
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "state mismatch"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing authorization code"})
		return
	}

	profile, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		slog.ErrorContext(r.Context(), "Google code exchange failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "sign-in failed"})
		return
	}

	user, err := s.users.UpsertUser(r.Context(), profile)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.tokens.TTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	slog.InfoContext(r.Context(), "User signed in",
		"user_id", user.ID, "email", user.Email)

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if token := auth.TokenFromRequest(r); token != "" {
		if err := s.tokens.Revoke(r.Context(), token); err != nil {
			writeError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

type authCheckResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId"`
}

func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	ownerID, err := auth.OwnerIDFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	writeJSON(w, http.StatusOK, authCheckResponse{Authenticated: true, UserID: ownerID})
}

func randomState() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(bytes)
}
