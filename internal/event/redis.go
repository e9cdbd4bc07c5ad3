package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	TransitionChannel = "screening:transitions"
	InterviewChannel  = "screening:interview"
)

// RedisPublisher publishes events as JSON. Interview invitations also go to
// InterviewChannel, where the notification service listens.
type RedisPublisher struct {
	client redis.Cmdable
	logger *zap.Logger

	warnedUnavailable atomic.Bool
}

func NewRedisPublisher(client redis.Cmdable, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev TransitionEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}

	channels := []string{TransitionChannel}
	if ev.Notify {
		channels = append(channels, InterviewChannel)
	}
	for _, ch := range channels {
		if err := p.client.Publish(ctx, ch, payload).Err(); err != nil {
			if p.warnedUnavailable.CompareAndSwap(false, true) {
				p.logger.Warn("redis unavailable, transition events not published", zap.Error(err))
			}
			return fmt.Errorf("publish to %s: %w", ch, err)
		}
	}
	p.warnedUnavailable.Store(false)
	return nil
}
