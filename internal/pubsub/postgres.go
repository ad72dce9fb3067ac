package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPostgresChannel is the LISTEN channel shared by every topic.
const DefaultPostgresChannel = "tripboard_events"

const postgresReconnectDelay = time.Second

// maxNotifyPayload is the largest payload Postgres accepts in NOTIFY.
const maxNotifyPayload = 7999

// ErrPayloadTooLarge is returned when an encoded message does not fit in a
// NOTIFY payload.
var ErrPayloadTooLarge = errors.New("pubsub: payload too large for postgres notify")

// envelope is the NOTIFY payload. Topics are multiplexed over one channel so
// the listener never has to issue LISTEN while waiting for notifications.
// JSON payloads are embedded as is; anything else is carried base64 encoded
// in Binary.
type envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Binary  []byte          `json:"binary,omitempty"`
}

func newEnvelope(topic string, payload []byte) envelope {
	if json.Valid(payload) {
		return envelope{Topic: topic, Payload: payload}
	}
	return envelope{Topic: topic, Binary: payload}
}

func (e envelope) body() []byte {
	if len(e.Payload) > 0 {
		return e.Payload
	}
	return e.Binary
}

// PostgresBus uses LISTEN/NOTIFY on a single channel. Publishing goes through
// a pool; listening holds one dedicated connection.
type PostgresBus struct {
	dsn     string
	channel string
	pool    *pgxpool.Pool
	router  *router
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPostgresBus connects to the database at dsn and starts listening.
func NewPostgresBus(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresBus, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	conn, err := listen(ctx, dsn, DefaultPostgresChannel)
	if err != nil {
		pool.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b := &PostgresBus{
		dsn:     dsn,
		channel: DefaultPostgresChannel,
		pool:    pool,
		router:  newRouter(),
		logger:  logger.With("component", "pubsub.postgres"),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go b.run(runCtx, conn)
	return b, nil
}

func listen(ctx context.Context, dsn, channel string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}
	return conn, nil
}

func (b *PostgresBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if b.isClosed() {
		return ErrClosed
	}

	data, err := json.Marshal(newEnvelope(topic, payload))
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	if len(data) > maxNotifyPayload {
		return fmt.Errorf("%w: %d bytes on %s", ErrPayloadTooLarge, len(data), topic)
	}

	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", b.channel, string(data)); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", topic, err)
	}
	return nil
}

func (b *PostgresBus) Subscribe(topic string, h Handler) (Subscription, error) {
	if b.isClosed() {
		return nil, ErrClosed
	}

	id, _ := b.router.add(topic, h)
	return &subscription{cancel: func() error {
		b.router.remove(topic, id)
		return nil
	}}, nil
}

func (b *PostgresBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	<-b.done
	b.pool.Close()
	return nil
}

func (b *PostgresBus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *PostgresBus) run(ctx context.Context, conn *pgx.Conn) {
	defer close(b.done)

	for {
		err := b.receive(ctx, conn)
		conn.Close(context.Background())
		if ctx.Err() != nil {
			return
		}
		b.logger.Warn("listener connection lost", "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(postgresReconnectDelay):
			}

			conn, err = listen(ctx, b.dsn, b.channel)
			if err != nil {
				b.logger.Warn("failed to reconnect listener", "error", err)
				continue
			}
			break
		}
	}
}

func (b *PostgresBus) receive(ctx context.Context, conn *pgx.Conn) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal([]byte(n.Payload), &env); err != nil {
			b.logger.Warn("dropping malformed notification", "error", err)
			continue
		}
		if env.Topic == "" {
			b.logger.Warn("dropping notification without topic")
			continue
		}
		b.router.dispatch(ctx, env.Topic, env.body())
	}
}
