package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/user/entity"
)

func testConfig() Config {
	return Config{
		Secret:   "test-secret",
		TTL:      time.Hour,
		Issuer:   "idcard-service",
		Audience: "idcard-web",
	}
}

func TestTokenService_IssueAndParse(t *testing.T) {
	ts := NewTokenService(testConfig())
	token, exp, err := ts.Issue(&entity.MinimalAuthView{ID: "u1", Email: "a@b.co", Version: 3})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "a@b.co", claims.Email)
	assert.Equal(t, int64(3), claims.Version)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_Expired(t *testing.T) {
	ts := NewTokenService(testConfig())
	ts.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := ts.Issue(&entity.MinimalAuthView{ID: "u1"})
	require.NoError(t, err)

	ts.now = time.Now
	_, err = ts.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	token, _, err := NewTokenService(testConfig()).Issue(&entity.MinimalAuthView{ID: "u1"})
	require.NoError(t, err)

	other := testConfig()
	other.Secret = "another-secret"
	_, err = NewTokenService(other).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other = testConfig()
	other.Audience = "someone-else"
	_, err = NewTokenService(other).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenService(testConfig()).Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_MissingSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = ""
	_, _, err := NewTokenService(cfg).Issue(&entity.MinimalAuthView{ID: "u1"})
	assert.ErrorIs(t, err, ErrMissingSecret)
}
