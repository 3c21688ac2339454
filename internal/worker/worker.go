package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dgc-network/dgc-indexer/internal/ingest"
	"github.com/redis/go-redis/v9"
)

// Config configures the worker.
type Config struct {
	RedisClient   redis.UniversalClient
	Applier       *ingest.Applier
	Topic         string
	ConsumerGroup string
}

// QueueStats holds queue statistics.
type QueueStats struct {
	StreamLength int64
	Pending      int64
	Consumers    int64
}

// Worker consumes block envelopes from Redis Streams and applies them.
// A message is acked only after its block is fully durable, so delivery
// is at-least-once and the version store's dedup absorbs replays.
type Worker struct {
	router        *message.Router
	applier       *ingest.Applier
	redisClient   redis.UniversalClient
	topic         string
	consumerGroup string
}

// New creates a new Worker.
func New(cfg Config) (*Worker, error) {
	logger := watermill.NewSlogLogger(nil)

	sub, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        cfg.RedisClient,
			ConsumerGroup: cfg.ConsumerGroup,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		router:        router,
		applier:       cfg.Applier,
		redisClient:   cfg.RedisClient,
		topic:         cfg.Topic,
		consumerGroup: cfg.ConsumerGroup,
	}

	router.AddNoPublisherHandler(
		"apply-block",
		cfg.Topic,
		sub,
		w.handleBlock,
	)

	return w, nil
}

// handleBlock processes a single block message.
func (w *Worker) handleBlock(msg *message.Message) error {
	start := time.Now()
	msgUUID := msg.UUID

	var env ingest.BlockEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		slog.Warn("worker invalid payload",
			"msg_uuid", msgUUID,
			"err", err,
		)
		return nil // ack malformed messages to avoid infinite retry
	}

	slog.Info("worker apply start",
		"block", env.BlockNum,
		"entries", len(env.Entries),
		"msg_uuid", msgUUID,
	)

	ctx := context.Background()
	if err := w.applier.ApplyBlock(ctx, env); err != nil {
		duration := time.Since(start)
		slog.Error("worker apply failed",
			"block", env.BlockNum,
			"msg_uuid", msgUUID,
			"duration_ms", duration.Milliseconds(),
			"err", err,
		)
		// Delay before retry to avoid hammering on errors
		time.Sleep(5 * time.Second)
		return err // will be redelivered
	}

	duration := time.Since(start)
	slog.Info("worker apply done",
		"block", env.BlockNum,
		"msg_uuid", msgUUID,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}

// Run starts the worker. It blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.router.Run(ctx)
}

// Close closes the worker.
func (w *Worker) Close() error {
	return w.router.Close()
}

// QueueStats returns current queue statistics.
func (w *Worker) QueueStats(ctx context.Context) (QueueStats, error) {
	var stats QueueStats

	length, err := w.redisClient.XLen(ctx, w.topic).Result()
	if err != nil {
		return stats, err
	}
	stats.StreamLength = length

	groups, err := w.redisClient.XInfoGroups(ctx, w.topic).Result()
	if err != nil {
		// Stream might not exist yet
		return stats, nil
	}

	for _, g := range groups {
		if g.Name == w.consumerGroup {
			stats.Pending = g.Pending
			stats.Consumers = g.Consumers
			break
		}
	}

	return stats, nil
}

// LogQueueStats logs current queue statistics.
func (w *Worker) LogQueueStats(ctx context.Context) {
	stats, err := w.QueueStats(ctx)
	if err != nil {
		slog.Warn("worker queue stats error", "err", err)
		return
	}

	slog.Info("worker queue stats",
		"stream_length", stats.StreamLength,
		"pending", stats.Pending,
		"consumers", stats.Consumers,
	)
}
