package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgc-network/dgc-indexer/internal/ingest"
	"github.com/gorilla/websocket"
)

// Config configures the WebSocket listener.
type Config struct {
	URL            string        // WebSocket URL of the ledger event feed
	MaxRetries     int           // Max reconnection attempts (default: 25)
	ReconnectDelay time.Duration // Base delay between reconnects (default: 1s)
}

// BlockHandler is called for each block envelope received.
type BlockHandler func(env ingest.BlockEnvelope)

// Listener subscribes to the ledger event feed for block envelopes.
type Listener struct {
	config  Config
	onBlock BlockHandler
	conn    *websocket.Conn
	mu      sync.RWMutex

	// Stats (protected by mu)
	connectedAt   time.Time
	messageCount  uint64
	lastMessageAt time.Time
}

// New creates a new WebSocket listener.
func New(config Config, onBlock BlockHandler) *Listener {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 25
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = time.Second
	}
	return &Listener{
		config:  config,
		onBlock: onBlock,
	}
}

// Run starts the listener. It blocks until the context is cancelled or
// the retry budget is exhausted.
func (l *Listener) Run(ctx context.Context) error {
	for attempt := 0; attempt < l.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		slog.Info("connecting to ledger event feed",
			"attempt", attempt+1,
			"max_retries", l.config.MaxRetries,
			"url", l.config.URL,
		)

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.config.URL, nil)
		if err == nil {
			l.mu.Lock()
			l.conn = conn
			l.connectedAt = time.Now()
			l.messageCount = 0
			l.mu.Unlock()

			slog.Info("websocket connected", "url", l.config.URL)

			err = l.listen(ctx)
			if err == context.Canceled {
				return err
			}

			l.mu.Lock()
			uptime := time.Since(l.connectedAt)
			msgCount := l.messageCount
			l.mu.Unlock()

			slog.Warn("websocket disconnected",
				"uptime", uptime,
				"messages", msgCount,
				"err", err,
			)

			// A healthy connection earns back the retry budget.
			if uptime > time.Minute {
				attempt = 0
			}
		} else {
			slog.Warn("websocket dial failed", "err", err)
		}

		delay := l.config.ReconnectDelay * time.Duration(attempt+1)
		slog.Info("reconnecting", "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("websocket listener exhausted %d retries", l.config.MaxRetries)
}

// listen reads block envelopes until the connection drops.
func (l *Listener) listen(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		if l.conn != nil {
			l.conn.Close()
			l.conn = nil
		}
		l.mu.Unlock()
	}()

	// Close the connection when the context ends to unblock ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.mu.RLock()
			if l.conn != nil {
				l.conn.Close()
			}
			l.mu.RUnlock()
		case <-done:
		}
	}()

	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			return fmt.Errorf("read message: %w", err)
		}

		l.mu.Lock()
		l.messageCount++
		l.lastMessageAt = time.Now()
		l.mu.Unlock()

		var env ingest.BlockEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			slog.Warn("skipping malformed block envelope", "err", err)
			continue
		}

		slog.Debug("received block envelope",
			"block", env.BlockNum,
			"entries", len(env.Entries),
		)
		l.onBlock(env)
	}
}

// Stats returns connection statistics.
func (l *Listener) Stats() (connectedAt, lastMessageAt time.Time, messages uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connectedAt, l.lastMessageAt, l.messageCount
}
