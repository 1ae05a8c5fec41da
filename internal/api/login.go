package api

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/bistro/internal/auth"
	"github.com/yanizio/bistro/internal/session"
)

// currentUser answers the logged-in identity or 401.
func (h *handlers) currentUser(w http.ResponseWriter, r *http.Request) {
	rc := auth.FromContext(r.Context())
	if rc.Anonymous() {
		writeMessage(w, http.StatusUnauthorized, "Not logged in.")
		return
	}
	writeJSON(w, http.StatusOK, rc.User)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	if strings.TrimSpace(email) == "" || password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	id, err := h.sessions.Authenticate(r.Context(), email, password)
	if errors.Is(err, session.ErrBadCredentials) {
		zap.L().Info("login failed", zap.String("email", email))
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Replace any session the browser already holds.
	if old, ok := h.cookies.Token(r); ok {
		_ = h.sessions.Destroy(r.Context(), old)
	}
	sess, err := h.sessions.Create(r.Context(), id.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.cookies.Set(w, sess)
	zap.L().Info("login", zap.Int64("user_id", id.ID), zap.String("role", id.Role))
	writeJSON(w, http.StatusOK, id)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.cookies.Token(r); ok {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			writeError(w, r, err)
			return
		}
	}
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}
