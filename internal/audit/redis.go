package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gosuda/plaza/internal/domain"
)

// ChannelPublisher publishes raw payloads. *redis.PubSub satisfies it.
type ChannelPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisAnnouncer announces audit logs on a shared channel so that every
// replica's relay can forward them to its own stream subscribers.
type RedisAnnouncer struct {
	publisher ChannelPublisher
	channel   string
}

func NewRedisAnnouncer(publisher ChannelPublisher, channel string) *RedisAnnouncer {
	return &RedisAnnouncer{publisher: publisher, channel: channel}
}

func (a *RedisAnnouncer) Announce(ctx context.Context, entry *domain.AuditLog) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit.RedisAnnouncer.Announce: marshal: %w", err)
	}
	if err := a.publisher.Publish(ctx, a.channel, payload); err != nil {
		return fmt.Errorf("audit.RedisAnnouncer.Announce: %w", err)
	}
	return nil
}
