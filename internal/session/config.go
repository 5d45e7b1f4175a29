package session

import (
	"os"
	"strings"
	"time"
)

// Config holds token, cookie and event-bus settings.
type Config struct {
	Secret       string
	TTL          time.Duration
	Issuer       string
	Audience     string
	CookieName   string
	CookieKeys   []string
	CookieSecure bool
	NatsURL      string
	NatsToken    string
	NatsSubject  string
}

// ConfigFromEnv reads session settings from environment variables.
func ConfigFromEnv() Config {
	ttl := 24 * time.Hour
	if v, err := time.ParseDuration(os.Getenv("SESSION_TTL")); err == nil && v > 0 {
		ttl = v
	}
	var keys []string
	for _, k := range strings.Split(os.Getenv("SESSION_COOKIE_KEYS"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	subject := os.Getenv("NATS_SUBJECT")
	if subject == "" {
		subject = "idcard.auth.events"
	}
	return Config{
		Secret:       os.Getenv("SESSION_SECRET"),
		TTL:          ttl,
		Issuer:       "idcard-service",
		Audience:     "idcard-web",
		CookieName:   "idcard_session",
		CookieKeys:   keys,
		CookieSecure: os.Getenv("SESSION_COOKIE_SECURE") == "true",
		NatsURL:      os.Getenv("NATS_URL"),
		NatsToken:    os.Getenv("NATS_TOKEN"),
		NatsSubject:  subject,
	}
}
