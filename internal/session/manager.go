package session

import (
	"context"
	"errors"
	"time"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/user/entity"
)

// ErrNoSession is returned when no valid session accompanies the request.
var ErrNoSession = errors.New("no session")

// Session is the authenticated caller as seen by the rest of the service.
type Session struct {
	Token     string                 `json:"access_token"`
	User      entity.MinimalAuthView `json:"user"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// Users is implemented by *user.UserService.
type Users interface {
	SignupUser(ctx context.Context, email, password string) (*entity.MinimalAuthView, error)
	AuthenticatePassword(ctx context.Context, email, password string) (*entity.MinimalAuthView, error)
	GetMinimalAuthView(ctx context.Context, id string) (*entity.MinimalAuthView, error)
	BumpVersion(ctx context.Context, id string) (int64, error)
}

// Manager is the auth backend: it signs users up and in, resolves tokens to
// sessions, signs users out and publishes every change on its Notifier.
type Manager struct {
	users    Users
	tokens   *TokenService
	notifier Notifier
	now      func() time.Time
}

func NewManager(users Users, tokens *TokenService, notifier Notifier) *Manager {
	if notifier == nil {
		notifier = NewBroadcaster()
	}
	return &Manager{users: users, tokens: tokens, notifier: notifier, now: time.Now}
}

// SignUp creates the account and returns a signed-in session.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*Session, error) {
	u, err := m.users.SignupUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.open(u)
}

// SignIn authenticates with email and password.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := m.users.AuthenticatePassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.open(u)
}

func (m *Manager) open(u *entity.MinimalAuthView) (*Session, error) {
	token, exp, err := m.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	m.publish(SignedIn, u.ID)
	return &Session{Token: token, User: *u, ExpiresAt: exp}, nil
}

// SignOut revokes every token of the session's user.
func (m *Manager) SignOut(ctx context.Context, s *Session) error {
	if s == nil {
		return ErrNoSession
	}
	if _, err := m.users.BumpVersion(ctx, s.User.ID); err != nil {
		return err
	}
	m.publish(SignedOut, s.User.ID)
	return nil
}

func (m *Manager) publish(t EventType, userID string) {
	metrics.SessionEvents.WithLabelValues(string(t)).Inc()
	m.notifier.Publish(Event{Type: t, UserID: userID, At: m.now()})
}

// Current resolves a token to the live session. Tokens issued before the
// user's last sign-out are rejected with ErrNoSession.
func (m *Manager) Current(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := m.users.GetMinimalAuthView(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if u.Version != claims.Version {
		return nil, ErrNoSession
	}
	s := &Session{Token: token, User: *u}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// CurrentUser is Current reduced to the user projection.
func (m *Manager) CurrentUser(ctx context.Context, token string) (*entity.MinimalAuthView, error) {
	s, err := m.Current(ctx, token)
	if err != nil {
		return nil, err
	}
	return &s.User, nil
}

// Subscribe registers h for session change events.
func (m *Manager) Subscribe(h EventHandler) func() {
	return m.notifier.Subscribe(h)
}
