package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/health"

	"github.com/alfredjeanlab/flash/internal/config"
	"github.com/alfredjeanlab/flash/internal/events"
	"github.com/alfredjeanlab/flash/internal/server"
	"github.com/alfredjeanlab/flash/internal/store"
	"github.com/alfredjeanlab/flash/internal/store/postgres"
	flashsync "github.com/alfredjeanlab/flash/internal/sync"
	"github.com/alfredjeanlab/flash/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the relay and vendor proxy server",
	GroupID: "system",
	// Override PersistentPreRunE so no client is created.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		relay, ticker := startRelay(ctx, cfg, logger)

		// Event mirror.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (FLASH_NATS_URL not set)")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("error closing publisher", "error", err)
			}
		}()

		// Long-term archive.
		var archive store.Archive = store.Disabled{}
		if cfg.DatabaseURL != "" {
			pg, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			archive = pg
			logger.Info("webhook archive enabled")
		}
		defer func() {
			if err := archive.Close(); err != nil {
				logger.Error("error closing archive", "error", err)
			}
		}()

		srv := server.New(cfg, relay,
			server.WithTicker(ticker),
			server.WithRootContext(ctx),
			server.WithPublisher(publisher),
			server.WithArchive(archive),
			server.WithLogger(logger),
		)

		// Snapshot export.
		scheduler := startSync(ctx, cfg, relay, logger)

		// Optional gRPC health listener.
		var healthServer *health.Server
		if cfg.GRPCAddr != "" {
			grpcServer, hs := server.NewGRPCServer()
			healthServer = hs
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				return err
			}
			go func() {
				logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
				if err := grpcServer.Serve(lis); err != nil {
					logger.Error("gRPC server error", "error", err)
				}
			}()
			defer func() {
				grpcServer.GracefulStop()
				logger.Info("gRPC server stopped")
			}()
		}

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		logger.Info("flash server started",
			"http_addr", cfg.HTTPAddr,
			"grpc_addr", cfg.GRPCAddr,
			"vendor", cfg.VendorBaseURL(),
			"heartbeat", cfg.HeartbeatInterval,
		)

		select {
		case <-ctx.Done():
			logger.Info("received signal, shutting down")
		case err := <-errCh:
			logger.Error("HTTP server error", "error", err)
			stop()
		}

		if healthServer != nil {
			healthServer.Shutdown()
		}
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		// Open streams end when ctx (their base context) is cancelled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	},
}

// startSync starts the snapshot exporter when an interval and at least one
// destination are configured.
// startRelay builds the process relay and starts its heartbeat, which runs
// until ctx is cancelled whether or not anyone subscribes.
func startRelay(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*webhook.Relay, *webhook.Ticker) {
	relay := webhook.NewRelay(webhook.WithLogger(logger))
	ticker := webhook.NewTicker(relay, cfg.HeartbeatInterval)
	ticker.Start(ctx)
	return relay, ticker
}

func startSync(ctx context.Context, cfg *config.Config, relay *webhook.Relay, logger *slog.Logger) *flashsync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}

	var dests []flashsync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := flashsync.NewS3Destination(ctx,
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "error", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, flashsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		return nil
	}

	scheduler := flashsync.NewScheduler(relay, dests, cfg.SyncInterval, logger)
	scheduler.Start(ctx)
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}

func init() {
	serveCmd.Flags().String("config", os.Getenv("FLASH_CONFIG"), "path to a TOML config file")
	serveCmd.Flags().Bool("debug", false, "enable debug logging")
}
