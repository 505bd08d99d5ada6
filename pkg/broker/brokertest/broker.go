// Package brokertest provides an in-memory broker.Controller for tests and
// for consumers who want to exercise generated controllers without a real
// messaging backend. Delivery is synchronous: Publish invokes the channel's
// handler before returning.
package brokertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/lerenn/asyncapi-codegen/pkg/broker"
)

// Broker is an in-memory broker.Controller recording every call so tests
// can assert on subscription bookkeeping.
type Broker struct {
	mu       sync.Mutex
	handlers map[string]broker.MessageHandler
	closed   bool

	// FailSubscribe lists channels whose Subscribe call must fail.
	FailSubscribe map[string]error

	SubscribeCalls   []string
	UnsubscribeCalls []string
	PublishCalls     []string
	CloseCalls       int
}

// New returns an empty in-memory broker.
func New() *Broker {
	return &Broker{handlers: make(map[string]broker.MessageHandler)}
}

func (b *Broker) Connect(ctx context.Context) error { return nil }

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("brokertest: broker is closed")
	}
	b.PublishCalls = append(b.PublishCalls, channel)
	handler := b.handlers[channel]
	b.mu.Unlock()

	if handler != nil {
		handler(ctx, payload)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string, handler broker.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SubscribeCalls = append(b.SubscribeCalls, channel)
	if err, ok := b.FailSubscribe[channel]; ok {
		return err
	}
	if _, dup := b.handlers[channel]; dup {
		return fmt.Errorf("brokertest: already subscribed to %q", channel)
	}
	b.handlers[channel] = handler
	return nil
}

func (b *Broker) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.UnsubscribeCalls = append(b.UnsubscribeCalls, channel)
	if _, ok := b.handlers[channel]; !ok {
		return fmt.Errorf("brokertest: not subscribed to %q", channel)
	}
	delete(b.handlers, channel)
	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.CloseCalls++
	b.closed = true
	b.handlers = make(map[string]broker.MessageHandler)
	return nil
}

// Subscribed reports whether a handler is currently registered on channel.
func (b *Broker) Subscribed(channel string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.handlers[channel]
	return ok
}
