package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func callerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CallerFromContext(r.Context())))
	})
}

func TestAuthenticator_BearerToken(t *testing.T) {
	m, _, _ := newTestManager()
	s, err := m.SignUp(context.Background(), "a@b.co", "secret123")
	require.NoError(t, err)
	a := NewAuthenticator(m, nil, zap.NewNop().Sugar())

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer " + s.Token, "id-a@b.co"},
		{"lowercase scheme", "bearer " + s.Token, "id-a@b.co"},
		{"invalid", "Bearer nope", ""},
		{"missing", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			a.Middleware(callerEcho()).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Body.String())
		})
	}
}

func TestAuthenticator_Cookie(t *testing.T) {
	m, _, _ := newTestManager()
	s, err := m.SignUp(context.Background(), "a@b.co", "secret123")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.CookieKeys = []string{"0123456789abcdef0123456789abcdef"}
	cookies, err := NewCookieStore(cfg)
	require.NoError(t, err)

	// issue the cookie
	rr := httptest.NewRecorder()
	require.NoError(t, cookies.SetToken(rr, httptest.NewRequest(http.MethodGet, "/", nil), s.Token))
	cookie := rr.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	NewAuthenticator(m, cookies, zap.NewNop().Sugar()).Middleware(callerEcho()).ServeHTTP(rr, req)
	assert.Equal(t, "id-a@b.co", rr.Body.String())

	// after sign-out the cookie is cleared
	require.NoError(t, m.SignOut(context.Background(), s))
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	NewAuthenticator(m, cookies, zap.NewNop().Sugar()).Middleware(callerEcho()).ServeHTTP(rr, req)
	assert.Equal(t, "", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Set-Cookie"))
}

func TestGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	authed := anon.WithContext(WithSession(anon.Context(), &Session{}))

	tests := []struct {
		name     string
		guard    func(http.Handler) http.Handler
		req      *http.Request
		status   int
		location string
	}{
		{"api anonymous", RequireAPI, anon, http.StatusUnauthorized, ""},
		{"api authed", RequireAPI, authed, http.StatusTeapot, ""},
		{"page anonymous", RequirePage, anon, http.StatusFound, "/login"},
		{"page authed", RequirePage, authed, http.StatusTeapot, ""},
		{"public anonymous", RedirectIfAuthenticated, anon, http.StatusTeapot, ""},
		{"public authed", RedirectIfAuthenticated, authed, http.StatusFound, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.guard(ok).ServeHTTP(rr, tt.req)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
		})
	}
}

func TestCookieStore_Flashes(t *testing.T) {
	cookies, err := NewCookieStore(testConfig())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, cookies.AddFlash(rr, httptest.NewRequest(http.MethodGet, "/", nil), "Failed to delete card: boom"))
	cookie := rr.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	assert.Equal(t, []string{"Failed to delete card: boom"}, cookies.Flashes(httptest.NewRecorder(), req))
}
