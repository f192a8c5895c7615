package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/sspzz/burn-stats/internal/aggregator"
	"github.com/sspzz/burn-stats/internal/app"
	"github.com/sspzz/burn-stats/internal/config"
)

func main() {
	cfg := config.LoadWorker()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg.Common)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	w := &aggregator.Worker{
		Runner:   a.Runner,
		Jobs:     a.Jobs(),
		Interval: cfg.Interval,
		Log:      a.Log.With("worker", "burn-worker"),
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.Log.Error("worker stopped", "error", err)
	}
}
