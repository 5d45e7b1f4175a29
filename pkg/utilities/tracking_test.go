package utilities

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackerFromEnv_NoDSN(t *testing.T) {
	t.Setenv("SENTRY_DSN", "")
	tr, err := NewTrackerFromEnv()
	require.NoError(t, err)
	assert.False(t, tr.Enabled())

	assert.NotPanics(t, func() {
		tr.CaptureException(errors.New("boom"))
		tr.RecoverValue("boom")
		tr.Flush(time.Millisecond)
	})
}

func TestNewTrackerFromEnv_BadDSN(t *testing.T) {
	t.Setenv("SENTRY_DSN", "not a dsn")
	tr, err := NewTrackerFromEnv()
	assert.Error(t, err)
	assert.False(t, tr.Enabled())
}

func TestTracker_NilIsDisabled(t *testing.T) {
	var tr *Tracker
	assert.False(t, tr.Enabled())
	assert.NotPanics(t, func() { tr.CaptureException(errors.New("boom")) })
}
