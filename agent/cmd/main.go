package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doniyusdinar/scanfleet/agent/internal/config"
	"github.com/doniyusdinar/scanfleet/agent/internal/runner"
	"github.com/doniyusdinar/scanfleet/agent/internal/scanner"
	"github.com/doniyusdinar/scanfleet/agent/internal/status"
	"github.com/doniyusdinar/scanfleet/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(cfg.LogLevel)
	logger.Log.Info("Scan Fleet Agent starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := runner.Connect(ctx, runner.HubDialer(cfg.HubAddress, 5*time.Second), cfg.ConnectRetryInterval)
	if err != nil {
		logger.Log.Info("Agent stopped before connecting to hub")
		return
	}
	defer client.Close()
	logger.Log.Infof("Connected to hub at %s", cfg.HubAddress)

	tracker := status.NewTracker()
	go tracker.Run(ctx)

	r := runner.New(client, scanner.NewExecutor(cfg.ScannerBinary), tracker, runner.Options{
		Hostname:           cfg.Hostname,
		Version:            cfg.Version,
		HeartbeatInterval:  cfg.HeartbeatInterval,
		MaxConcurrentScans: cfg.MaxConcurrentScans,
	})

	if err := r.Register(ctx); err != nil {
		logger.Log.Fatalf("Failed to register with hub: %v", err)
	}

	if err := r.Run(ctx); err != nil {
		logger.Log.Errorf("Heartbeat loop error: %v", err)
	}

	logger.Log.Info("Shutting down agent...")

	// In-flight scans cannot be aborted; give them a bounded chance to report.
	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Log.Warn("Exiting with scans still running; their results will not be reported")
	}

	logger.Log.Info("Agent exited")
}
