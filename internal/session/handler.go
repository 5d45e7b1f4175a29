package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/user"
)

// Handler exposes the JSON auth endpoints and the session event stream.
type Handler struct {
	manager   *Manager
	logger    *zap.SugaredLogger
	keepAlive time.Duration
}

func NewHandler(m *Manager, logger *zap.SugaredLogger) *Handler {
	return &Handler{manager: m, logger: logger, keepAlive: 25 * time.Second}
}

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	s, err := h.manager.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debugw("signup failed", "err", err)
		switch {
		case errors.Is(err, user.ErrInvalidSignup):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, user.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
		default:
			h.logger.Warnw("signup failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "signup failed"})
		}
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	s, err := h.manager.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		if errors.Is(err, user.ErrBadCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s, _ := FromContext(r.Context())
	if err := h.manager.SignOut(r.Context(), s); err != nil {
		if errors.Is(err, ErrNoSession) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
			return
		}
		h.logger.Warnw("logout failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "logout failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Current returns the caller's user, or null when anonymous.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	s, ok := FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": s.User, "expires_at": s.ExpiresAt})
}

// Events streams session changes of the caller as server-sent events,
// starting with INITIAL_SESSION. The stream ends on SIGNED_OUT.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	holder := NewHolder(h.manager.notifier, func(ctx context.Context) (*Session, error) {
		if s, ok := FromContext(ctx); ok {
			return s, nil
		}
		return nil, ErrNoSession
	})
	s, err := holder.Init(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session unavailable"})
		return
	}
	defer holder.Close()
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial := Event{Type: InitialSession, At: time.Now()}
	if s != nil {
		initial.UserID = s.User.ID
	}
	writeEvent(w, initial)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e, open := <-holder.Events():
			if !open {
				return
			}
			writeEvent(w, e)
			flusher.Flush()
			if e.Type == SignedOut {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, e Event) {
	b, _ := json.Marshal(e)
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
