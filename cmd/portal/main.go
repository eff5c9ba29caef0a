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

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/portal"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/router"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/session"
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
	sugar.Info("starting campus portal")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := portal.ConfigFromEnv()
	tokens, err := session.NewService(session.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("session tokens: %v", err)
	}
	gw, err := portal.NewGateway(ctx, cfg, tokens, sugar)
	if err != nil {
		sugar.Fatalf("auth gateway: %v", err)
	}

	registry := portal.NewRegistry(gw, cfg.FormInstanceTTL, sugar)
	handler := portal.NewHandler(registry, tokens, cfg, sugar)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.New(sugar, router.Options{CSRF: &router.CSRFConfig{SecureCookies: cfg.SecureCookies}}, handler),
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
