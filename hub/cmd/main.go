package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	_ "github.com/doniyusdinar/scanfleet/hub/docs"
	"github.com/doniyusdinar/scanfleet/hub/internal/api"
	"github.com/doniyusdinar/scanfleet/hub/internal/config"
	"github.com/doniyusdinar/scanfleet/hub/internal/coordination"
	"github.com/doniyusdinar/scanfleet/hub/internal/events"
	"github.com/doniyusdinar/scanfleet/hub/internal/history"
	"github.com/doniyusdinar/scanfleet/hub/internal/registry"
	"github.com/doniyusdinar/scanfleet/pkg/logger"
	natspkg "github.com/doniyusdinar/scanfleet/pkg/nats"
	"github.com/doniyusdinar/scanfleet/pkg/redis"
	"github.com/doniyusdinar/scanfleet/pkg/rpc"
)

// @title Scan Fleet Hub API
// @version 1.0
// @description Control API for the scan fleet hub

// @host localhost:3000
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(cfg.LogLevel)
	logger.Log.Info("Starting Scan Fleet Hub")

	redisClient, err := redis.NewClient(context.Background(), redis.Config{
		Address:  cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Enabled:  cfg.RedisEnabled,
	})
	if err != nil {
		if cfg.HistoryBackend == history.BackendRedis {
			logger.Log.Fatalf("Failed to connect to Redis: %v", err)
		}
		logger.Log.Warnf("Redis unavailable, continuing without it: %v", err)
		redisClient = nil
	}
	defer redisClient.Close()

	store, err := newHistoryStore(cfg, redisClient)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize history store: %v", err)
	}
	defer store.Close()
	logger.Log.Infof("History backend: %s", cfg.HistoryBackend)

	publisher, closePublisher := newPublisher(cfg, redisClient)
	defer closePublisher()

	reg := registry.New()

	// gRPC coordination service
	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to listen on %s: %v", cfg.GRPCAddress, err)
	}
	grpcServer := grpc.NewServer()
	rpc.RegisterAgentServiceServer(grpcServer, coordination.NewService(reg, store, publisher))

	go func() {
		logger.Log.Infof("Coordination service listening on %s", cfg.GRPCAddress)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	// HTTP control API
	handler := api.NewHandler(reg, store, publisher, cfg.DefaultScanPath)
	router := api.SetupRouter(handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		logger.Log.Infof("Control API listening on port %s", cfg.HTTPPort)
		logger.Log.Infof("Swagger docs available at http://localhost:%s/swagger/index.html", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down hub...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		grpcServer.Stop()
	}

	logger.Log.Info("Hub exited")
}

func newHistoryStore(cfg *config.Config, redisClient *redis.Client) (history.Store, error) {
	switch cfg.HistoryBackend {
	case history.BackendSQLite:
		return history.NewSQLiteStore(cfg.SQLitePath)
	case history.BackendRedis:
		return history.NewRedisStore(redisClient, cfg.HistoryMaxEntries), nil
	default:
		return history.NewMemoryStore(), nil
	}
}

// newPublisher wires every reachable event sink. Sinks that fail to connect
// are skipped so the hub still starts.
func newPublisher(cfg *config.Config, redisClient *redis.Client) (events.Publisher, func()) {
	var sinks events.Multi
	closers := []func(){}

	if cfg.NATSEnabled {
		natsClient := natspkg.NewClient(natspkg.Config{
			URLs:           []string{cfg.NATSURL},
			Token:          cfg.NATSToken,
			MaxReconnect:   -1,
			ReconnectWait:  2 * time.Second,
			ConnectionName: "scanfleet-hub",
			Enabled:        true,
		})
		if err := natsClient.Connect(); err != nil {
			logger.Log.Warnf("NATS unavailable, events will not be published there: %v", err)
		} else {
			sinks = append(sinks, events.NewNATSPublisher(natsClient, cfg.NATSSubjectPrefix))
			closers = append(closers, natsClient.Close)
		}
	}

	if redisClient != nil {
		sinks = append(sinks, events.NewRedisPublisher(redisClient, events.RedisChannel))
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if len(sinks) == 0 {
		return events.Nop{}, closeAll
	}
	return sinks, closeAll
}
