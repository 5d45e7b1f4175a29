package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card"
	cardrepo "github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/repo"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-idcard-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/web"
	"github.com/ovaphlow/pitchfork/service-idcard-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-idcard-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-idcard-go")

	tracker, err := utilities.NewTrackerFromEnv()
	if err != nil {
		sugar.Warnw("error tracking disabled", "err", err)
	}
	defer tracker.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init db
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	users := userrepo.NewUserRepo(db)
	if err := users.EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	cards := cardrepo.NewRepo(db)
	if err := cards.EnsureTable(ctx); err != nil {
		sugar.Fatalf("ensure cards table: %v", err)
	}

	// init object storage
	storageCfg := storage.ConfigFromEnv()
	objects, err := storage.NewMinioStore(storageCfg)
	if err != nil {
		sugar.Fatalf("storage client: %v", err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		sugar.Fatalf("ensure bucket %s: %v", storageCfg.Bucket, err)
	}

	// sessions
	sessionCfg := session.ConfigFromEnv()
	if sessionCfg.Secret == "" {
		sugar.Fatal("SESSION_SECRET is required")
	}
	var notifier session.Notifier
	if sessionCfg.NatsURL != "" {
		conn, err := session.ConnectNats(sessionCfg)
		if err != nil {
			sugar.Fatalf("nats connect: %v", err)
		}
		nn, err := session.NewNatsNotifier(conn, sessionCfg.NatsSubject, sugar)
		if err != nil {
			sugar.Fatalf("nats subscribe %s: %v", sessionCfg.NatsSubject, err)
		}
		defer nn.Close()
		notifier = nn
		sugar.Infow("session events relayed over nats", "subject", sessionCfg.NatsSubject)
	}
	manager := session.NewManager(
		user.NewUserService(users, user.BcryptHasher{}),
		session.NewTokenService(sessionCfg),
		notifier,
	)
	cookies, err := session.NewCookieStore(sessionCfg)
	if err != nil {
		sugar.Fatalf("cookie store: %v", err)
	}
	if len(sessionCfg.CookieKeys) == 0 {
		sugar.Warn("SESSION_COOKIE_KEYS not set; browser sessions will not survive a restart")
	}

	cardService := card.NewService(cards, objects, sugar)

	routerCfg := router.ConfigFromEnv()
	routerCfg.ImageOrigin = originOf(storageCfg.BaseURL())

	handler := router.New(routerCfg, router.Deps{
		Logger:   sugar,
		Tracker:  tracker,
		Auth:     session.NewAuthenticator(manager, cookies, sugar),
		Sessions: session.NewHandler(manager, sugar),
		Cards:    card.NewHandler(cardService, sugar),
		Pages:    web.NewHandler(cardService, manager, cookies, sugar),
		Health: map[string]router.HealthCheck{
			"database": db.PingContext,
			"storage":  objects.Ping,
		},
	})

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			tracker.CaptureException(err)
			tracker.Flush(2 * time.Second)
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

// originOf reduces the public image URL prefix to scheme://host for the
// content security policy.
func originOf(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
