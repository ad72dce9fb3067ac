package pubsub

import (
	"context"
	"sync"
)

// MemoryBus delivers payloads synchronously inside one process. It is the
// default for single-instance deployments and tests.
type MemoryBus struct {
	router *router

	mu     sync.RWMutex
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{router: newRouter()}
}

// Publish calls every handler subscribed to topic before returning.
func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	b.router.dispatch(ctx, topic, payload)
	return nil
}

func (b *MemoryBus) Subscribe(topic string, h Handler) (Subscription, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	id, _ := b.router.add(topic, h)
	return &subscription{cancel: func() error {
		b.router.remove(topic, id)
		return nil
	}}, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
