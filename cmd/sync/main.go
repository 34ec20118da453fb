// Command sync runs one calendar sync against the configured store and
// prints the result as JSON. It exits 1 when the run fails.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	service "github.com/okian/luma-sync/internal/app"
	"github.com/okian/luma-sync/internal/config"
	"github.com/okian/luma-sync/pkg/logger"
)

func main() {
	calendar := flag.String("calendar", "", "calendar identifier to sync")
	flag.Parse()

	os.Exit(run(*calendar))
}

func run(calendarID string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}
	// Logs go to stderr so stdout carries only the result.
	if err := logger.InitWriter(os.Stderr, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Get()

	svc, err := service.NewFromConfig(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		return 1
	}
	// Stop closes the store even though the worker was never started.
	defer svc.Stop()

	res, err := svc.SyncCalendar(ctx, calendarID)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
	if err != nil || !res.Success {
		return 1
	}
	return 0
}
