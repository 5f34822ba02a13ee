package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisBroker fans board events out to every server instance sharing a Redis.
// Publish goes to Redis only; Run feeds what Redis delivers into the local hub,
// so an instance sees its own events exactly once.
type RedisBroker struct {
	rdb       *redis.Client
	namespace string
	hub       *Hub
	logger    *slog.Logger
}

// NewRedisBroker connects a broker to the local hub. Channels are namespaced
// so several deployments can share one Redis.
func NewRedisBroker(opts *redis.Options, namespace string, hub *Hub, logger *slog.Logger) (*RedisBroker, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RedisBroker{
		rdb:       redis.NewClient(opts),
		namespace: namespace,
		hub:       hub,
		logger:    logger,
	}, nil
}

// Channel returns the pub/sub channel of a board.
func (b *RedisBroker) Channel(boardID int64) string {
	return fmt.Sprintf("%s:board:%d", b.namespace, boardID)
}

// Ping verifies Redis connectivity.
func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}

// Publish sends ev to the board's channel.
func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.Channel(ev.BoardID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run subscribes to every board channel of the namespace and forwards events
// to the hub until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	ps := b.rdb.PSubscribe(ctx, b.namespace+":board:*")
	defer ps.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("dropping malformed event", slog.String("channel", msg.Channel), slog.String("error", err.Error()))
				continue
			}
			if err := b.hub.Publish(ctx, ev); err != nil {
				return nil
			}
		}
	}
}
