package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/auth"
	apierrors "github.com/LeBonSushi/ft-transcendence-sub000/internal/errors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var (
	errMalformedFrame = apierrors.InvalidInputError("malformed message")
	errMissingRoomID  = apierrors.InvalidInputError("roomId is required")
	errUnknownEvent   = apierrors.InvalidInputError("unknown event")
)

// Client is one authenticated websocket connection.
type Client struct {
	id       string
	identity auth.Identity
	conn     *websocket.Conn
	gateway  *Gateway
	logger   *slog.Logger

	send chan []byte

	// rooms is guarded by gateway.mu.
	rooms map[uint64]struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newClient(g *Gateway, conn *websocket.Conn, identity auth.Identity, buffer int) *Client {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:       id,
		identity: identity,
		conn:     conn,
		gateway:  g,
		logger:   g.logger.With("conn_id", id, "user_id", identity.ID),
		send:     make(chan []byte, buffer),
		rooms:    make(map[uint64]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// enqueue queues frame for writing without blocking. A client whose queue is
// full is disconnected.
func (c *Client) enqueue(frame []byte) bool {
	if c.ctx.Err() != nil {
		return false
	}

	select {
	case c.send <- frame:
		return true
	case <-c.ctx.Done():
		return false
	default:
		c.logger.Warn("send queue full, disconnecting socket")
		c.closeWith(websocket.ClosePolicyViolation, "too slow")
		return false
	}
}

func (c *Client) sendFrame(event string, payload interface{}) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		c.logger.Error("failed to encode frame", "event", event, "error", err)
		return
	}
	c.enqueue(frame)
}

// sendError reports err as an error event. Errors outside the API taxonomy
// are logged and reported as internal errors.
func (c *Client) sendError(event string, err error) {
	apiErr := apierrors.As(err)
	if apiErr == apierrors.ErrInternalError {
		c.logger.Error("socket request failed", "event", event, "error", err)
	}
	c.sendFrame(EventError, ErrorData{Message: apiErr.Message, Code: apiErr.Code, Event: event})
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.conn.Close()
	})
}

// closeWith sends a close frame before closing the connection.
func (c *Client) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.cancel()
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.conn.Close()
	})
}

// readPump handles inbound frames until the connection fails or is closed.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("failed to set read deadline", "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
		c.sendError("", errMalformedFrame)
		return
	}

	switch frame.Event {
	case EventSubscribe, EventUnsubscribe:
		var req RoomRequest
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &req); err != nil {
				c.sendError(frame.Event, errMalformedFrame)
				return
			}
		}
		if req.RoomID == 0 {
			c.sendError(frame.Event, errMissingRoomID)
			return
		}

		if frame.Event == EventUnsubscribe {
			c.gateway.unsubscribe(c, req.RoomID)
			c.sendFrame(EventUnsubscribed, req)
			return
		}

		if err := c.gateway.subscribe(c.ctx, c, req.RoomID); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.sendError(frame.Event, err)
			return
		}
		c.sendFrame(EventSubscribed, req)
	default:
		c.sendError(frame.Event, errUnknownEvent)
	}
}

// writePump writes queued frames and keepalive pings. It is the only writer
// of data frames on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("websocket ping failed", "error", err)
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}
