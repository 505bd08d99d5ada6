// Package broker defines the capability contract generated controllers
// depend on. Concrete brokers (NATS, Kafka, in-memory doubles) live in
// consuming projects; generated code is polymorphic over any Controller
// implementation and never names a concrete broker type.
package broker

import (
	"context"
	"errors"
	"fmt"
)

// MessageHandler is invoked once per received message. The broker
// implementation chooses the concurrency model: handlers may run on a
// dedicated dispatch loop or one goroutine per message, and no ordering is
// guaranteed beyond what the underlying broker provides.
type MessageHandler func(ctx context.Context, payload []byte)

// Controller is the minimal capability set generated code consumes.
//
// Publish must be safe to call concurrently. Close must tolerate being
// called more than once; calls after the first may be no-ops.
type Controller interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler MessageHandler) error
	Unsubscribe(ctx context.Context, channel string) error
	Close() error
}

// Subscription pairs a channel with the handler to register on it.
type Subscription struct {
	Channel string
	Handler MessageHandler
}

// SubscribeAll registers every subscription or none: when the k-th
// subscribe fails, the k-1 already-established subscriptions are rolled
// back in reverse order before the error is returned. Rollback failures are
// joined onto the original error.
func SubscribeAll(ctx context.Context, c Controller, subs []Subscription) error {
	for i, sub := range subs {
		if err := c.Subscribe(ctx, sub.Channel, sub.Handler); err != nil {
			err = fmt.Errorf("subscribe %q: %w", sub.Channel, err)
			for j := i - 1; j >= 0; j-- {
				if uerr := c.Unsubscribe(ctx, subs[j].Channel); uerr != nil {
					err = errors.Join(err, fmt.Errorf("rollback %q: %w", subs[j].Channel, uerr))
				}
			}
			return err
		}
	}
	return nil
}
