package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Authenticator resolves the caller from a Bearer token or the session
// cookie and stores the session on the request context. It never rejects a
// request; the Require* guards do that.
type Authenticator struct {
	manager *Manager
	cookies *CookieStore
	logger  *zap.SugaredLogger
}

func NewAuthenticator(m *Manager, cookies *CookieStore, logger *zap.SugaredLogger) *Authenticator {
	return &Authenticator{manager: m, cookies: cookies, logger: logger}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		fromCookie := false
		if token == "" && a.cookies != nil {
			token = a.cookies.Token(r)
			fromCookie = token != ""
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		s, err := a.manager.Current(r.Context(), token)
		if err != nil {
			a.logger.Debugw("session rejected", "path", r.URL.Path, "err", err)
			if fromCookie && isRevoked(err) {
				_ = a.cookies.Clear(w, r)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// isRevoked reports errors that condemn the token itself, as opposed to a
// failing backend.
func isRevoked(err error) bool {
	return errors.Is(err, ErrNoSession) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken)
}

// RequireAPI answers 401 for anonymous callers.
func RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePage sends anonymous visitors to the login page.
func RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectIfAuthenticated sends signed-in visitors to the dashboard.
func RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
