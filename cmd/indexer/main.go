package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgc-network/dgc-indexer/internal/api"
	"github.com/dgc-network/dgc-indexer/internal/config"
	"github.com/dgc-network/dgc-indexer/internal/ingest"
	"github.com/dgc-network/dgc-indexer/internal/listener"
	"github.com/dgc-network/dgc-indexer/internal/publisher"
	"github.com/dgc-network/dgc-indexer/internal/worker"
	"github.com/dgc-network/dgc-indexer/pkg/projection"
	"github.com/dgc-network/dgc-indexer/pkg/storage/postgres"
	"github.com/dgc-network/dgc-indexer/pkg/version"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	slog.Info("starting dgc-indexer",
		"ws_enabled", cfg.WSEnabled,
		"http_enabled", cfg.HTTPEnabled,
	)

	// Connect to PostgreSQL
	client, err := postgres.NewClient(ctx, zapLogger.Named("postgres"), cfg.PostgresURL, nil)
	if err != nil {
		slog.Error("failed to connect to postgres", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	store := postgres.New(client)
	if err := store.InitSchema(ctx); err != nil {
		slog.Error("failed to initialize schema", "err", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("failed to parse redis url", "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Wire the engine
	versions := version.NewStore(store, zapLogger.Named("version"))
	resolver := version.NewResolver(store)
	applier := ingest.New(versions, store)
	projector := projection.New(store, resolver, zapLogger.Named("projection"))

	pub, err := publisher.New(redisClient, cfg.BlocksTopic)
	if err != nil {
		slog.Error("failed to create publisher", "err", err)
		os.Exit(1)
	}
	defer pub.Close()

	wrk, err := worker.New(worker.Config{
		RedisClient:   redisClient,
		Applier:       applier,
		Topic:         cfg.BlocksTopic,
		ConsumerGroup: cfg.ConsumerGroup,
	})
	if err != nil {
		slog.Error("failed to create worker", "err", err)
		os.Exit(1)
	}
	defer wrk.Close()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting worker")
		return wrk.Run(ctx)
	})

	if cfg.WSEnabled {
		lst := listener.New(listener.Config{
			URL:            cfg.WSURL,
			MaxRetries:     cfg.WSMaxRetries,
			ReconnectDelay: cfg.WSReconnectDelay,
		}, func(env ingest.BlockEnvelope) {
			if err := pub.PublishBlock(ctx, env); err != nil {
				slog.Error("failed to publish block", "block", env.BlockNum, "err", err)
			}
		})

		g.Go(func() error {
			slog.Info("starting websocket listener", "url", cfg.WSURL)
			return lst.Run(ctx)
		})
	}

	if cfg.HTTPEnabled {
		server, err := api.NewServer(projector, store, zapLogger.Named("api"), cfg.HTTPAddr, cfg.JWTSecret)
		if err != nil {
			slog.Error("failed to create api server", "err", err)
			os.Exit(1)
		}
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	if cfg.GapCheckInterval > 0 {
		g.Go(func() error {
			return runPeriodicGapCheck(ctx, store, cfg.GapCheckInterval)
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("indexer error", "err", err)
		os.Exit(1)
	}

	slog.Info("shutdown complete")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// runPeriodicGapCheck watches for holes in the applied block sequence.
// A gap means the upstream feed skipped blocks and the projection is
// incomplete between them.
func runPeriodicGapCheck(ctx context.Context, store *postgres.Store, interval time.Duration) error {
	slog.Info("starting periodic gap check", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			gaps, err := store.FindGaps(ctx)
			if err != nil {
				slog.Warn("gap check failed", "err", err)
				continue
			}

			if len(gaps) > 0 {
				slog.Warn("gaps detected in applied blocks",
					"gaps", len(gaps),
					"first_from", gaps[0].From,
					"first_to", gaps[0].To,
				)
			} else {
				slog.Debug("gap check passed, no missing blocks")
			}
		}
	}
}
