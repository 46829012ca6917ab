package handlers

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carrental-web/internal/middleware"
	"github.com/ukydev/carrental-web/internal/models"
	"github.com/ukydev/carrental-web/internal/session"
)

const maxSessionBody = 16 << 10

// AdoptRequest carries a token issued by the authentication service
type AdoptRequest struct {
	Token string `json:"token"`
}

// ProfileResponse describes the caller's session
type ProfileResponse struct {
	Authenticated bool         `json:"authenticated"`
	Role          models.Role  `json:"role"`
	User          *models.User `json:"user,omitempty"`
}

// SessionHandler lets a browser adopt and drop a session token
type SessionHandler struct {
	validator session.Validator
	maxAge    time.Duration
}

// NewSessionHandler creates a new session handler. maxAge bounds the
// lifetime of the session cookie.
func NewSessionHandler(validator session.Validator, maxAge time.Duration) *SessionHandler {
	return &SessionHandler{
		validator: validator,
		maxAge:    maxAge,
	}
}

// Adopt validates a token and stores it in the session cookie. Form posts
// are redirected to the list, JSON callers get their profile back.
func (h *SessionHandler) Adopt(w http.ResponseWriter, r *http.Request) {
	token, err := readToken(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	s, err := h.validator.SessionFromToken(token)
	if err != nil {
		log.WithError(err).Debug("Rejected session token")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    s.Token,
		Path:     "/",
		MaxAge:   int(h.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	log.WithFields(log.Fields{
		"username": s.User.Username,
		"role":     s.Role(),
	}).Info("Session adopted")

	if isJSON(r) {
		writeJSON(w, http.StatusOK, profileOf(s))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Clear drops the session cookie
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if isJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Profile returns the caller's session as JSON
func (h *SessionHandler) Profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileOf(sessionOf(r)))
}

// Health returns health check status
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func readToken(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSessionBody)

	if isJSON(r) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return "", errBadBody
		}
		var req AdoptRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", errBadJSON
		}
		return strings.TrimSpace(req.Token), nil
	}

	if err := r.ParseForm(); err != nil {
		return "", errBadBody
	}
	return strings.TrimSpace(r.PostFormValue("token")), nil
}

type requestError string

func (e requestError) Error() string { return string(e) }

const (
	errBadBody requestError = "Failed to read request body"
	errBadJSON requestError = "Invalid JSON"
)

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func profileOf(s models.Session) ProfileResponse {
	return ProfileResponse{
		Authenticated: s.IsAuthenticated(),
		Role:          s.Role(),
		User:          s.User,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}
