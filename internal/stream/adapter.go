package stream

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/gosuda/plaza/internal/domain"
)

// DefaultTick is how long Next waits for a record before reporting an
// empty iteration.
const DefaultTick = 5 * time.Second

// Subscriber is the subscribe side of a Bridge.
type Subscriber interface {
	SubscribeOnce(ctx context.Context) (domain.AuditLog, error)
}

// Adapter turns one-shot subscriptions into an unbounded sequence of salted
// records. Create one per connection.
type Adapter struct {
	source  Subscriber
	salt    Salt
	tick    time.Duration
	metrics *Metrics
}

func NewAdapter(source Subscriber, salt Salt, tick time.Duration, metrics *Metrics) *Adapter {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Adapter{source: source, salt: salt, tick: tick, metrics: metrics}
}

// Next waits up to one tick for the next record. It returns ok=false with a
// nil error when the tick elapsed first, and ctx.Err() once ctx is done.
// The losing side of the wait is always torn down before Next returns.
func (a *Adapter) Next(ctx context.Context) (domain.AuditLog, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditLog{}, false, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.tick)
	defer cancel()

	record, err := a.source.SubscribeOnce(waitCtx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.AuditLog{}, false, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			a.metrics.tick()
			return domain.AuditLog{}, false, nil
		}
		return domain.AuditLog{}, false, fmt.Errorf("stream.Adapter.Next: %w", err)
	}

	record.ID = a.salt.String()
	return record, true, nil
}

// Records yields salted records until ctx is done or the consumer stops.
// Empty ticks are skipped. A non-context failure is yielded once as an
// error and ends the sequence.
func (a *Adapter) Records(ctx context.Context) iter.Seq2[domain.AuditLog, error] {
	return func(yield func(domain.AuditLog, error) bool) {
		for {
			record, ok, err := a.Next(ctx)
			if err != nil {
				if ctx.Err() == nil {
					yield(domain.AuditLog{}, err)
				}
				return
			}
			if !ok {
				continue
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}
