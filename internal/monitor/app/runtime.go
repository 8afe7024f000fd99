// Package app assembles the monitoring runtime: stores, transport, the
// poll loop, the command bot, and a gRPC health endpoint.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	journalsqlite "github.com/turnwatch/turnwatch/internal/journal/sqlite"
	"github.com/turnwatch/turnwatch/internal/monitor"
	"github.com/turnwatch/turnwatch/internal/monitor/storage/file"
	"github.com/turnwatch/turnwatch/internal/platform/timeouts"
	"github.com/turnwatch/turnwatch/internal/telegram"
)

// RuntimeConfig controls runtime startup, dependencies, and loop behavior.
type RuntimeConfig struct {
	Port         int
	BotToken     string
	BotAPIURL    string
	GameBaseURL  string
	SnapshotPath string
	JournalPath  string
	PollInterval time.Duration
	Schedule     monitor.Schedule
	Locale       string
}

const (
	defaultPort         = 8090
	defaultSnapshotPath = "data/turnwatch.json"
	defaultJournalPath  = "data/turnwatch.db"
	defaultPollInterval = time.Minute
)

// Run starts runtime dependencies, the background poll loop, and the
// command listener. It blocks until ctx is cancelled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.BotToken) == "" {
		return fmt.Errorf("bot token is required")
	}
	if strings.TrimSpace(cfg.GameBaseURL) == "" {
		return fmt.Errorf("game base URL is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.SnapshotPath) == "" {
		cfg.SnapshotPath = defaultSnapshotPath
	}
	if strings.TrimSpace(cfg.JournalPath) == "" {
		cfg.JournalPath = defaultJournalPath
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollInterval < monitor.MinPollInterval {
		return fmt.Errorf("poll interval %s is below the %s minimum", cfg.PollInterval, monitor.MinPollInterval)
	}

	snapshots, err := file.New(cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	journalStore, err := journalsqlite.Open(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal store: %w", err)
	}
	defer func() {
		if closeErr := journalStore.Close(); closeErr != nil {
			log.Printf("close journal store: %v", closeErr)
		}
	}()

	client, err := telegram.NewClient(telegram.Config{Token: cfg.BotToken, BaseURL: cfg.BotAPIURL})
	if err != nil {
		return fmt.Errorf("build telegram client: %w", err)
	}
	dispatcher := monitor.NewDispatcher(telegram.NewNotifier(client), journalStore, nil)

	service, err := monitor.NewService(monitor.Config{
		BaseURL:    cfg.GameBaseURL,
		Fetcher:    monitor.NewHTTPFetcher(),
		Dispatcher: dispatcher,
		Snapshots:  snapshots,
		Schedule:   cfg.Schedule,
		Interval:   cfg.PollInterval,
		Locale:     cfg.Locale,
	})
	if err != nil {
		return fmt.Errorf("build monitor service: %w", err)
	}
	if err := service.Restore(ctx); err != nil {
		// A damaged snapshot should not keep the service down; it starts
		// clean and rewrites the snapshot on the next command.
		log.Printf("restore snapshot: %v", err)
	}

	bot, err := telegram.NewBot(client, service, journalStore)
	if err != nil {
		return fmt.Errorf("build telegram bot: %w", err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on health port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("turnwatch.monitor", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	stopLoop, loopDone := monitor.StartLoop(ctx, service)
	defer func() {
		stopLoop()
		select {
		case <-loopDone:
		case <-time.After(timeouts.Shutdown):
			log.Printf("poll loop still draining after %s, abandoning wait", timeouts.Shutdown)
		}
	}()

	log.Printf("turnwatch health server listening at %v", listener.Addr())
	return bot.Listen(ctx)
}
