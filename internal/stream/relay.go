package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/plaza/internal/domain"
)

// MessageSource delivers raw payloads published on a channel.
// *redis.PubSub satisfies this interface.
type MessageSource interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Publisher is the publish side of a Bridge.
type Publisher interface {
	Publish(record domain.AuditLog) int
}

// Relay forwards audit logs announced by any replica on a shared channel
// into the local Bridge.
type Relay struct {
	source  MessageSource
	channel string
	target  Publisher
}

func NewRelay(source MessageSource, channel string, target Publisher) *Relay {
	return &Relay{source: source, channel: channel, target: target}
}

// Run forwards messages until ctx is done. Undecodable payloads are logged
// and skipped.
func (r *Relay) Run(ctx context.Context) error {
	messages, cleanup, err := r.source.Subscribe(ctx, r.channel)
	if err != nil {
		return fmt.Errorf("stream.Relay.Run: %w", err)
	}
	defer cleanup()

	log.Info().Str("channel", r.channel).Msg("audit log relay subscribed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("stream.Relay.Run: subscription closed")
			}

			var record domain.AuditLog
			if decodeErr := json.Unmarshal(payload, &record); decodeErr != nil {
				log.Warn().Err(decodeErr).Str("channel", r.channel).Msg("relay: undecodable audit log")
				continue
			}

			n := r.target.Publish(record)
			log.Debug().Str("channel", r.channel).Int("subscribers", n).Msg("relay: audit log forwarded")
		}
	}
}
