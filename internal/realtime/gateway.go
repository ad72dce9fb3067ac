package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/auth"
	apierrors "github.com/LeBonSushi/ft-transcendence-sub000/internal/errors"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/pubsub"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// MembershipChecker answers whether a user currently belongs to a room. It is
// consulted on every subscribe; the gateway never caches the answer.
type MembershipChecker interface {
	IsMember(ctx context.Context, roomID, userID uint64) (bool, error)
}

// TokenAuthenticator resolves a bearer token to a user identity.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Options tunes a Gateway. Zero values select the defaults.
type Options struct {
	// AllowedOrigins lists the browser origins allowed to connect. Requests
	// without an Origin header are always accepted.
	AllowedOrigins []string
	// SendBuffer is the number of frames queued per socket before the socket
	// is considered too slow and disconnected.
	SendBuffer int
}

const defaultSendBuffer = 64

// group is a set of local sockets sharing one bus subscription.
type group struct {
	clients map[*Client]struct{}
	sub     pubsub.Subscription
}

func newGroup(sub pubsub.Subscription) *group {
	return &group{clients: make(map[*Client]struct{}), sub: sub}
}

func (g *group) snapshot() []*Client {
	clients := make([]*Client, 0, len(g.clients))
	for c := range g.clients {
		clients = append(clients, c)
	}
	return clients
}

// Gateway owns the sockets of this process. rooms and users are a local cache
// of who listens to what: a room group exists from its first subscriber to
// its last, and each group holds the bus subscription for its topic so events
// published by any instance reach the local sockets.
type Gateway struct {
	bus        pubsub.Bus
	members    MembershipChecker
	authn      TokenAuthenticator
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *slog.Logger

	mu    sync.Mutex
	rooms map[uint64]*group
	users map[uint64]*group
}

var _ services.RoomEmitter = (*Gateway)(nil)

// NewGateway creates a Gateway delivering through bus.
func NewGateway(bus pubsub.Bus, members MembershipChecker, authn TokenAuthenticator, opts Options, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}

	allowed := make(map[string]bool, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		allowed[origin] = true
	}

	return &Gateway{
		bus:     bus,
		members: members,
		authn:   authn,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		sendBuffer: opts.SendBuffer,
		logger:     logger.With("component", "realtime"),
		rooms:      make(map[uint64]*group),
		users:      make(map[uint64]*group),
	}
}

// Handle authenticates the request and upgrades it to a websocket. The token
// comes from the token query parameter or a Bearer Authorization header.
// It returns when the socket disconnects.
func (g *Gateway) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = auth.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		apierrors.Unauthorized(c, "")
		return
	}

	identity, err := g.authn.Authenticate(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}
		g.logger.Error("failed to authenticate socket", "error", err)
		apierrors.Respond(c, err)
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		g.logger.Warn("websocket upgrade failed", "user_id", identity.ID, "error", err)
		return
	}

	client := newClient(g, conn, *identity, g.sendBuffer)
	if err := g.register(client); err != nil {
		g.logger.Error("failed to register socket", "user_id", identity.ID, "error", err)
		client.closeWith(websocket.CloseInternalServerErr, "registration failed")
		return
	}
	defer g.unregister(client)

	client.logger.Debug("socket connected")
	if frame, err := encodeFrame(EventConnected, identity); err == nil {
		client.enqueue(frame)
	}

	go client.writePump()
	client.readPump()
}

// register adds c to its user's group, subscribing to the user's
// notification topic for the first socket of that user.
func (g *Gateway) register(c *Client) error {
	userID := c.identity.ID

	g.mu.Lock()
	defer g.mu.Unlock()

	ug, ok := g.users[userID]
	if !ok {
		sub, err := g.bus.Subscribe(pubsub.UserNotificationsTopic(userID), g.notificationHandler(userID))
		if err != nil {
			return fmt.Errorf("failed to subscribe to notifications: %w", err)
		}
		ug = newGroup(sub)
		g.users[userID] = ug
	}
	ug.clients[c] = struct{}{}
	return nil
}

// unregister drops c from every group and releases the bus subscriptions of
// groups left empty.
func (g *Gateway) unregister(c *Client) {
	var released []pubsub.Subscription

	g.mu.Lock()
	for roomID := range c.rooms {
		if sub := g.leaveLocked(c, roomID); sub != nil {
			released = append(released, sub)
		}
	}
	if ug, ok := g.users[c.identity.ID]; ok {
		delete(ug.clients, c)
		if len(ug.clients) == 0 {
			delete(g.users, c.identity.ID)
			released = append(released, ug.sub)
		}
	}
	g.mu.Unlock()

	c.close()
	g.release(released...)
	c.logger.Debug("socket disconnected")
}

// leaveLocked removes c from the room group. When the group empties it is
// deleted and its subscription returned for release outside the lock.
func (g *Gateway) leaveLocked(c *Client, roomID uint64) pubsub.Subscription {
	delete(c.rooms, roomID)

	rg, ok := g.rooms[roomID]
	if !ok {
		return nil
	}
	delete(rg.clients, c)
	if len(rg.clients) > 0 {
		return nil
	}
	delete(g.rooms, roomID)
	return rg.sub
}

func (g *Gateway) release(subs ...pubsub.Subscription) {
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		if err := sub.Unsubscribe(); err != nil {
			g.logger.Warn("failed to release subscription", "error", err)
		}
	}
}

// subscribe adds c to roomID after checking membership against the store.
// Membership is checked again once the socket is in the group: a removal that
// commits between the first check and the insert would otherwise have its
// eviction applied before the socket joined, leaving it subscribed.
func (g *Gateway) subscribe(ctx context.Context, c *Client, roomID uint64) error {
	if err := g.checkMember(ctx, c, roomID); err != nil {
		return err
	}
	if err := g.join(c, roomID); err != nil {
		return err
	}
	if err := g.checkMember(ctx, c, roomID); err != nil {
		g.unsubscribe(c, roomID)
		return err
	}
	return nil
}

func (g *Gateway) checkMember(ctx context.Context, c *Client, roomID uint64) error {
	ok, err := g.members.IsMember(ctx, roomID, c.identity.ID)
	if err != nil {
		return err
	}
	if !ok {
		return services.ErrNotRoomMember
	}
	return nil
}

// join adds c to the room group, subscribing to the room topic for the first
// local socket.
func (g *Gateway) join(c *Client, roomID uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rg, exists := g.rooms[roomID]
	if !exists {
		sub, err := g.bus.Subscribe(pubsub.RoomEventsTopic(roomID), g.roomHandler(roomID))
		if err != nil {
			return fmt.Errorf("failed to subscribe to room events: %w", err)
		}
		rg = newGroup(sub)
		g.rooms[roomID] = rg
	}
	rg.clients[c] = struct{}{}
	c.rooms[roomID] = struct{}{}
	return nil
}

// unsubscribe removes c from roomID. Unknown rooms are ignored.
func (g *Gateway) unsubscribe(c *Client, roomID uint64) {
	g.mu.Lock()
	sub := g.leaveLocked(c, roomID)
	g.mu.Unlock()

	g.release(sub)
}

// EmitToRoom delivers event to every socket subscribed to roomID on every
// instance.
func (g *Gateway) EmitToRoom(ctx context.Context, roomID uint64, event string, payload interface{}) {
	g.publishRoom(ctx, roomID, kindBroadcast, 0, event, payload)
}

// EvictFromRoom sends room:removed to userID's sockets in roomID and
// unsubscribes them.
func (g *Gateway) EvictFromRoom(ctx context.Context, roomID, userID uint64, payload services.RemovedPayload) {
	g.publishRoom(ctx, roomID, kindEvict, userID, services.EventRoomRemoved, payload)
}

// CloseRoom delivers event to the room and then unsubscribes every socket.
func (g *Gateway) CloseRoom(ctx context.Context, roomID uint64, event string, payload interface{}) {
	g.publishRoom(ctx, roomID, kindClose, 0, event, payload)
}

func (g *Gateway) publishRoom(ctx context.Context, roomID uint64, kind string, userID uint64, event string, payload interface{}) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		g.logger.Error("failed to encode room event", "room_id", roomID, "event", event, "error", err)
		return
	}

	msg := roomMessage{Kind: kind, RoomID: roomID, UserID: userID, Frame: frame}
	body, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("failed to encode room message", "room_id", roomID, "event", event, "error", err)
		return
	}

	if err := g.bus.Publish(ctx, pubsub.RoomEventsTopic(roomID), body); err != nil {
		// Other instances miss this event; local sockets still get it.
		g.logger.Warn("failed to publish room event", "room_id", roomID, "event", event, "error", err)
		g.apply(msg)
	}
}

func (g *Gateway) roomHandler(roomID uint64) pubsub.Handler {
	return func(_ context.Context, payload []byte) {
		var msg roomMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			g.logger.Warn("dropping malformed room message", "room_id", roomID, "error", err)
			return
		}
		if msg.RoomID != roomID {
			g.logger.Warn("dropping room message for another room", "room_id", roomID, "message_room_id", msg.RoomID)
			return
		}
		g.apply(msg)
	}
}

// apply performs msg against the local sockets.
func (g *Gateway) apply(msg roomMessage) {
	var (
		targets  []*Client
		released []pubsub.Subscription
	)

	g.mu.Lock()
	rg, ok := g.rooms[msg.RoomID]
	if !ok {
		g.mu.Unlock()
		return
	}

	switch msg.Kind {
	case kindBroadcast:
		targets = rg.snapshot()
	case kindEvict:
		for _, c := range rg.snapshot() {
			if c.identity.ID != msg.UserID {
				continue
			}
			targets = append(targets, c)
			if sub := g.leaveLocked(c, msg.RoomID); sub != nil {
				released = append(released, sub)
			}
		}
	case kindClose:
		targets = rg.snapshot()
		for _, c := range targets {
			if sub := g.leaveLocked(c, msg.RoomID); sub != nil {
				released = append(released, sub)
			}
		}
	default:
		g.logger.Warn("dropping room message of unknown kind", "room_id", msg.RoomID, "kind", msg.Kind)
	}
	g.mu.Unlock()

	for _, c := range targets {
		c.enqueue(msg.Frame)
	}
	g.release(released...)
}

func (g *Gateway) notificationHandler(userID uint64) pubsub.Handler {
	return func(_ context.Context, payload []byte) {
		frame, err := encodeFrame(EventNotificationCreated, json.RawMessage(payload))
		if err != nil {
			g.logger.Warn("dropping malformed notification", "user_id", userID, "error", err)
			return
		}

		g.mu.Lock()
		var targets []*Client
		if ug, ok := g.users[userID]; ok {
			targets = ug.snapshot()
		}
		g.mu.Unlock()

		for _, c := range targets {
			c.enqueue(frame)
		}
	}
}

// RoomSubscribers returns the number of local sockets subscribed to roomID.
func (g *Gateway) RoomSubscribers(roomID uint64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rg, ok := g.rooms[roomID]; ok {
		return len(rg.clients)
	}
	return 0
}

// Stats reports the number of connected users and active room groups.
func (g *Gateway) Stats() (users, rooms int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.users), len(g.rooms)
}

// Shutdown disconnects every socket. Handlers return as their read loops end.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	var clients []*Client
	for _, ug := range g.users {
		clients = append(clients, ug.snapshot()...)
	}
	g.mu.Unlock()

	for _, c := range clients {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
}
