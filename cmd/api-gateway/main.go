package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sspzz/burn-stats/internal/app"
	"github.com/sspzz/burn-stats/internal/config"
)

func main() {
	cfg := config.LoadAPI()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg.Common)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	mux := http.NewServeMux()
	a.Handler(cfg.JobToken).Routes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.Log.Info("api listening", "addr", cfg.Addr, "backend", cfg.BlobBackend, "job_auth", cfg.JobToken != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.Log.Error("server error", "error", err)
	}
}
