package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hrms-backend/internal/bootstrap"
	"hrms-backend/internal/dailyops"
	"hrms-backend/internal/shared/config"
	"hrms-backend/internal/shared/telemetry"
)

const defaultRunTimeoutSec = 120

type jobRunner interface {
	Run(ctx context.Context) (dailyops.Outcome, error)
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	runTimeout := time.Duration(envInt("WORKER_RUN_TIMEOUT_SECONDS", defaultRunTimeoutSec)) * time.Second
	once := envBool("WORKER_RUN_ONCE")

	log.Printf("worker started interval=%s once=%v", cfg.DailyOpsInterval, once)
	if once {
		if err := runOnce(ctx, app.DailyOps, runTimeout); err != nil {
			log.Fatalf("daily operations: %v", err)
		}
		return
	}
	loop(ctx, app.DailyOps, cfg.DailyOpsInterval, runTimeout)
	log.Printf("shutdown requested, worker stopped")
}

// loop runs r immediately and then on every tick until ctx ends. A failed
// run is retried on the next tick.
func loop(ctx context.Context, r jobRunner, interval, runTimeout time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := runOnce(ctx, r, runTimeout); err != nil && ctx.Err() == nil {
			telemetry.Warn("worker.dailyops.failed", map[string]any{
				"error":        err,
				"next_attempt": time.Now().Add(interval).UTC().Format(time.RFC3339),
			})
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, r jobRunner, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultRunTimeoutSec * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := r.Run(runCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	telemetry.Info("worker.dailyops.completed", map[string]any{
		"stale_alerts": len(out.StaleAlerts),
		"date":         out.Report.Date,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return v
}
