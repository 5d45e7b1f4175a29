// Package router mounts pages, the JSON API and operational endpoints on a
// chi router behind the shared middleware chain.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/web"
	"github.com/ovaphlow/pitchfork/service-idcard-go/pkg/utilities"
)

// Config holds HTTP surface settings.
type Config struct {
	CORSOrigins  []string
	RateInterval time.Duration
	RateBurst    int
	TrustProxy   bool
	ImageOrigin  string
}

// ConfigFromEnv reads CORS_ALLOWED_ORIGINS, RATE_LIMIT_INTERVAL,
// RATE_LIMIT_BURST and TRUST_PROXY_HEADERS.
func ConfigFromEnv() Config {
	cfg := Config{
		RateInterval: time.Second,
		RateBurst:    10,
		TrustProxy:   os.Getenv("TRUST_PROXY_HEADERS") == "true",
	}
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if v, err := time.ParseDuration(os.Getenv("RATE_LIMIT_INTERVAL")); err == nil && v > 0 {
		cfg.RateInterval = v
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST")); err == nil && v > 0 {
		cfg.RateBurst = v
	}
	return cfg
}

// HealthCheck reports whether one backend is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the handlers and services the router wires together.
type Deps struct {
	Logger   *zap.SugaredLogger
	Tracker  *utilities.Tracker
	Auth     *session.Authenticator
	Sessions *session.Handler
	Cards    *card.Handler
	Pages    *web.Handler
	Health   map[string]HealthCheck
}

func health(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "unavailable", "failed": failed})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// New builds the HTTP handler of the service.
func New(cfg Config, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(RecoverMiddleware(d.Logger, d.Tracker))
	r.Use(SecurityHeadersMiddleware(cfg.ImageOrigin))

	r.Get("/health", health(d.Health))
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", web.Static())

	limit := RateLimitMiddleware(cfg.TrustProxy, cfg.RateInterval, cfg.RateBurst, 4096, 10*time.Minute)
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler

	r.Group(func(r chi.Router) {
		r.Use(d.Auth.Middleware)

		// auth pages are for anonymous visitors only
		r.Group(func(r chi.Router) {
			r.Use(session.RedirectIfAuthenticated)
			r.Get("/login", d.Pages.LoginPage)
			r.Get("/signup", d.Pages.SignupPage)
			r.With(limit).Post("/login", d.Pages.Login)
			r.With(limit).Post("/signup", d.Pages.Signup)
		})
		r.Post("/logout", d.Pages.Logout)

		r.Group(func(r chi.Router) {
			r.Use(session.RequirePage)
			r.Get("/", d.Pages.Dashboard)
			r.Get("/create", d.Pages.CreatePage)
			r.Post("/create", d.Pages.Create)
			r.Post("/create/preview", d.Pages.CreatePreview)
			r.Get("/edit/{id}", d.Pages.EditPage)
			r.Post("/edit/{id}", d.Pages.Edit)
			r.Get("/cards/{id}/delete", d.Pages.DeletePage)
			r.Post("/cards/{id}/delete", d.Pages.Delete)
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(corsMiddleware)
			r.With(limit).Post("/auth/signup", d.Sessions.Signup)
			r.With(limit).Post("/auth/login", d.Sessions.Login)
			r.Get("/session", d.Sessions.Current)

			r.Group(func(r chi.Router) {
				r.Use(session.RequireAPI)
				r.Post("/auth/logout", d.Sessions.Logout)
				r.Get("/session/events", d.Sessions.Events)
				r.Get("/cards", d.Cards.List)
				r.Post("/cards", d.Cards.Create)
				r.Get("/cards/{id}", d.Cards.Get)
				r.Put("/cards/{id}", d.Cards.Update)
				r.Delete("/cards/{id}", d.Cards.Delete)
			})
		})
	})
	return r
}
