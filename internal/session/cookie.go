package session

import (
	"crypto/rand"
	"net/http"

	"github.com/gorilla/sessions"
)

const tokenValue = "token"

// CookieStore persists the session token and flash messages for the
// server-rendered pages.
type CookieStore struct {
	store *sessions.CookieStore
	name  string
}

// NewCookieStore uses the configured keys, or a random key when none are
// set, in which case cookies do not survive a restart.
func NewCookieStore(cfg Config) (*CookieStore, error) {
	var keys [][]byte
	for _, k := range cfg.CookieKeys {
		keys = append(keys, []byte(k))
	}
	if len(keys) == 0 {
		k := make([]byte, 32)
		if _, err := rand.Read(k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	store := sessions.NewCookieStore(keys...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	name := cfg.CookieName
	if name == "" {
		name = "idcard_session"
	}
	return &CookieStore{store: store, name: name}, nil
}

func (c *CookieStore) get(r *http.Request) *sessions.Session {
	// A cookie that fails to decode yields a fresh session.
	s, _ := c.store.Get(r, c.name)
	return s
}

func (c *CookieStore) Token(r *http.Request) string {
	v, _ := c.get(r).Values[tokenValue].(string)
	return v
}

func (c *CookieStore) SetToken(w http.ResponseWriter, r *http.Request, token string) error {
	s := c.get(r)
	s.Values[tokenValue] = token
	return s.Save(r, w)
}

func (c *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	s := c.get(r)
	delete(s.Values, tokenValue)
	return s.Save(r, w)
}

func (c *CookieStore) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	s := c.get(r)
	s.AddFlash(msg)
	return s.Save(r, w)
}

// Flashes pops pending flash messages.
func (c *CookieStore) Flashes(w http.ResponseWriter, r *http.Request) []string {
	s := c.get(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save(r, w)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if m, ok := f.(string); ok {
			out = append(out, m)
		}
	}
	return out
}
