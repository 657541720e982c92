// Command expire runs a single expiry sweep and exits. It is meant for
// external schedulers when the in-process cron is disabled.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"job-service/internal/app"
	"job-service/internal/config"
	"job-service/internal/logger"

	"go.uber.org/zap"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "sweep timeout")
	unlocked := flag.Bool("unlocked", false, "skip the shared sweep lock")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	c, err := app.NewContainer(cfg, lg)
	if err != nil {
		lg.Fatal("failed to init container", zap.Error(err))
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *unlocked {
		n, err := c.Reaper.Sweep(ctx)
		if err != nil {
			lg.Fatal("expiry sweep failed", zap.Error(err))
		}
		lg.Info("expiry sweep done", zap.Int64("expired", n))
		return
	}

	n, ran, err := c.Reaper.SweepLocked(ctx)
	if err != nil {
		lg.Fatal("expiry sweep failed", zap.Error(err))
	}
	if !ran {
		lg.Info("expiry sweep skipped, another instance holds the lock")
		return
	}
	lg.Info("expiry sweep done", zap.Int64("expired", n))
}
