// Command bootstrap creates the database schema and exits. The indexer
// also initializes the schema on startup; this exists for provisioning
// pipelines that prepare the database before granting the indexer a
// lesser role.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dgc-network/dgc-indexer/pkg/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		slog.Error("POSTGRES_URL is required")
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client, err := postgres.NewClient(ctx, logger, url, nil)
	if err != nil {
		slog.Error("failed to connect to postgres", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	if err := postgres.New(client).InitSchema(ctx); err != nil {
		slog.Error("failed to initialize schema", "err", err)
		os.Exit(1)
	}

	slog.Info("bootstrap complete")
}
