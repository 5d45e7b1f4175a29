package utilities

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// Tracker reports errors and recovered panics to Sentry. A zero Tracker
// (no DSN configured) is a no-op.
type Tracker struct {
	enabled bool
}

// NewTrackerFromEnv initializes Sentry from SENTRY_DSN / SENTRY_ENVIRONMENT.
// An empty DSN yields a disabled tracker and a nil error.
func NewTrackerFromEnv() (*Tracker, error) {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return &Tracker{}, nil
	}
	env := os.Getenv("SENTRY_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: env}); err != nil {
		return &Tracker{}, err
	}
	return &Tracker{enabled: true}, nil
}

func (t *Tracker) Enabled() bool { return t != nil && t.enabled }

// CaptureException sends err to Sentry.
func (t *Tracker) CaptureException(err error) {
	if !t.Enabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// RecoverValue reports a value obtained from recover().
func (t *Tracker) RecoverValue(v any) {
	if !t.Enabled() {
		return
	}
	sentry.CurrentHub().Recover(v)
}

// Flush waits for buffered events, up to timeout.
func (t *Tracker) Flush(timeout time.Duration) {
	if !t.Enabled() {
		return
	}
	sentry.Flush(timeout)
}
