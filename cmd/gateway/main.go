package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/router"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/session"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-campus-portal/pkg/database"
	"github.com/ovaphlow/pitchfork/service-campus-portal/pkg/utilities"
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
	sugar.Info("starting campus auth gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := session.NewService(session.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("session tokens: %v", err)
	}

	var repo user.Repo
	switch store := envOr("GATEWAY_STORE", "postgres"); store {
	case "memory":
		sugar.Warn("using in-memory account store; accounts are lost on restart")
		repo = userrepo.NewMemoryRepo()
	case "postgres":
		db, err := database.Open(database.ConfigFromEnv())
		if err != nil {
			sugar.Fatalf("db connect: %v", err)
		}
		defer db.Close()
		pg := userrepo.NewAccountRepo(db)
		if err := pg.EnsureTable(ctx); err != nil {
			sugar.Fatalf("ensure accounts table: %v", err)
		}
		repo = pg
	default:
		sugar.Fatalf("unknown GATEWAY_STORE %q (want postgres or memory)", store)
	}

	cfg := user.ConfigFromEnv()
	if cfg.AdminKey == "" {
		sugar.Warn("GATEWAY_ADMIN_KEY not set; account admin endpoints are disabled")
	}
	svc := user.NewService(repo, nil, cfg, sugar)
	handler := user.NewHandler(user.NewLocalGateway(svc, tokens), cfg.AdminKey, sugar)

	srv := &http.Server{
		Addr:              envOr("GATEWAY_ADDR", "0.0.0.0:8431"),
		Handler:           router.New(sugar, router.Options{}, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
