package pubsub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
)

const redisReconnectDelay = time.Second

// RedisBus publishes through a connection pool and holds one dedicated
// subscriber connection. Redis SUBSCRIBE is issued for a topic when its first
// local handler registers and UNSUBSCRIBE when the last one leaves.
type RedisBus struct {
	pool   *redis.Pool
	dial   func() (redis.Conn, error)
	router *router
	logger *slog.Logger

	// mu guards psc writes, psc replacement and closed.
	mu     sync.Mutex
	psc    redis.PubSubConn
	closed bool

	stop chan struct{}
	done chan struct{}
}

// NewRedisBus connects to the redis server at addr.
func NewRedisBus(addr, password string, logger *slog.Logger) (*RedisBus, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dial := func() (redis.Conn, error) {
		return redis.Dial("tcp", addr,
			redis.DialPassword(password),
			redis.DialConnectTimeout(5*time.Second),
		)
	}

	conn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	b := &RedisBus{
		pool: &redis.Pool{
			MaxIdle:     8,
			IdleTimeout: 240 * time.Second,
			Dial:        dial,
			TestOnBorrow: func(c redis.Conn, t time.Time) error {
				if time.Since(t) < time.Minute {
					return nil
				}
				_, err := c.Do("PING")
				return err
			},
		},
		dial:   dial,
		router: newRouter(),
		logger: logger.With("component", "pubsub.redis"),
		psc:    redis.PubSubConn{Conn: conn},
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go b.run()
	return b, nil
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if b.isClosed() {
		return ErrClosed
	}

	conn, err := b.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "PUBLISH", topic, payload); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(topic string, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	id, first := b.router.add(topic, h)
	if first {
		if err := b.psc.Subscribe(topic); err != nil {
			b.router.remove(topic, id)
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	return &subscription{cancel: func() error {
		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.router.remove(topic, id) || b.closed {
			return nil
		}
		if err := b.psc.Unsubscribe(topic); err != nil {
			return fmt.Errorf("failed to unsubscribe from %s: %w", topic, err)
		}
		return nil
	}}, nil
}

// Close stops the receive loop and releases every connection.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.stop)
	err := b.psc.Close()
	b.mu.Unlock()

	<-b.done
	return errors.Join(err, b.pool.Close())
}

func (b *RedisBus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// run receives until Close, redialling and resubscribing after connection loss.
func (b *RedisBus) run() {
	defer close(b.done)

	for {
		err := b.receive()
		if b.isClosed() {
			return
		}
		b.logger.Warn("subscriber connection lost", "error", err)

		for {
			select {
			case <-b.stop:
				return
			case <-time.After(redisReconnectDelay):
			}

			if err := b.reconnect(); err != nil {
				b.logger.Warn("failed to reconnect subscriber", "error", err)
				continue
			}
			break
		}
	}
}

func (b *RedisBus) receive() error {
	b.mu.Lock()
	psc := b.psc
	b.mu.Unlock()

	ctx := context.Background()
	for {
		switch v := psc.Receive().(type) {
		case redis.Message:
			b.router.dispatch(ctx, v.Channel, v.Data)
		case redis.Subscription:
			b.logger.Debug("subscription changed", "kind", v.Kind, "channel", v.Channel, "count", v.Count)
		case error:
			return v
		}
	}
}

func (b *RedisBus) reconnect() error {
	conn, err := b.dial()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		conn.Close()
		return nil
	}

	psc := redis.PubSubConn{Conn: conn}
	if topics := b.router.active(); len(topics) > 0 {
		args := make([]interface{}, len(topics))
		for i, topic := range topics {
			args[i] = topic
		}
		if err := psc.Subscribe(args...); err != nil {
			conn.Close()
			return err
		}
	}
	b.psc.Close()
	b.psc = psc
	return nil
}
