package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/auth"
	apierrors "github.com/LeBonSushi/ft-transcendence-sub000/internal/errors"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/pubsub"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceID uint64 = 1
	bobID   uint64 = 2
)

type fakeAuthenticator map[string]auth.Identity

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	identity, ok := f[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &identity, nil
}

type fakeMembers struct {
	mu      sync.Mutex
	members map[uint64]map[uint64]bool
	// afterRead runs once, between reading the answer and returning it.
	afterRead func(roomID, userID uint64)
}

func (f *fakeMembers) onNextRead(hook func(roomID, userID uint64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afterRead = hook
}

func (f *fakeMembers) remove(roomID, userID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[roomID], userID)
}

func (f *fakeMembers) add(roomID uint64, userIDs ...uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[roomID] == nil {
		f.members[roomID] = make(map[uint64]bool)
	}
	for _, id := range userIDs {
		f.members[roomID][id] = true
	}
}

func (f *fakeMembers) IsMember(_ context.Context, roomID, userID uint64) (bool, error) {
	f.mu.Lock()
	ok := f.members[roomID][userID]
	hook := f.afterRead
	f.afterRead = nil
	f.mu.Unlock()

	if hook != nil {
		hook(roomID, userID)
	}
	return ok, nil
}

type gatewayEnv struct {
	gateway *Gateway
	members *fakeMembers
	bus     *pubsub.MemoryBus
	url     string
}

func setupGateway(t *testing.T) *gatewayEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := pubsub.NewMemoryBus()
	members := &fakeMembers{members: make(map[uint64]map[uint64]bool)}
	authn := fakeAuthenticator{
		"alice-token": {ID: aliceID, Username: "alice"},
		"bob-token":   {ID: bobID, Username: "bob"},
	}
	gw := NewGateway(bus, members, authn, Options{}, nil)

	r := gin.New()
	r.GET("/ws", gw.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		gw.Shutdown()
		srv.Close()
	})

	return &gatewayEnv{
		gateway: gw,
		members: members,
		bus:     bus,
		url:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (env *gatewayEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(env.url+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	frame := readFrame(t, conn)
	require.Equal(t, EventConnected, frame.Event)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func sendRoomRequest(t *testing.T, conn *websocket.Conn, event string, roomID uint64) {
	t.Helper()

	data, err := json.Marshal(RoomRequest{RoomID: roomID})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Frame{Event: event, Data: data}))
}

func subscribe(t *testing.T, conn *websocket.Conn, roomID uint64) {
	t.Helper()

	sendRoomRequest(t, conn, EventSubscribe, roomID)
	frame := readFrame(t, conn)
	require.Equal(t, EventSubscribed, frame.Event, string(frame.Data))

	var ack RoomRequest
	require.NoError(t, json.Unmarshal(frame.Data, &ack))
	require.Equal(t, roomID, ack.RoomID)
}

func decode[T any](t *testing.T, frame Frame) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(frame.Data, &v))
	return v
}

func TestGateway_RejectsUnauthenticated(t *testing.T) {
	env := setupGateway(t)

	for _, url := range []string{env.url, env.url + "?token=forged"} {
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	users, rooms := env.gateway.Stats()
	assert.Zero(t, users)
	assert.Zero(t, rooms)
}

func TestGateway_AcceptsBearerHeader(t *testing.T) {
	env := setupGateway(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer bob-token")
	conn, _, err := websocket.DefaultDialer.Dial(env.url, header)
	require.NoError(t, err)
	defer conn.Close()

	frame := readFrame(t, conn)
	require.Equal(t, EventConnected, frame.Event)
	identity := decode[auth.Identity](t, frame)
	assert.Equal(t, auth.Identity{ID: bobID, Username: "bob"}, identity)
}

func TestGateway_SubscribeRequiresMembership(t *testing.T) {
	env := setupGateway(t)
	conn := env.dial(t, "alice-token")

	sendRoomRequest(t, conn, EventSubscribe, 1)
	frame := readFrame(t, conn)
	require.Equal(t, EventError, frame.Event)

	data := decode[ErrorData](t, frame)
	assert.Equal(t, apierrors.ErrCodeForbidden, data.Code)
	assert.Equal(t, EventSubscribe, data.Event)
	assert.Zero(t, env.gateway.RoomSubscribers(1))

	// The socket stays usable after a failed subscription.
	env.members.add(1, aliceID)
	subscribe(t, conn, 1)
	assert.Equal(t, 1, env.gateway.RoomSubscribers(1))
}

func TestGateway_EmitReachesOnlySubscribedSockets(t *testing.T) {
	env := setupGateway(t)
	env.members.add(1, aliceID, bobID)
	env.members.add(2, aliceID)

	aliceRoom1 := env.dial(t, "alice-token")
	aliceRoom2 := env.dial(t, "alice-token")
	bob := env.dial(t, "bob-token")

	subscribe(t, aliceRoom1, 1)
	subscribe(t, aliceRoom2, 2)
	subscribe(t, bob, 1)

	ctx := context.Background()
	env.gateway.EmitToRoom(ctx, 1, services.EventProposalCreated, services.ProposalPayload{RoomID: 1, ProposalID: 10})
	env.gateway.EmitToRoom(ctx, 2, services.EventProposalUpdated, services.ProposalPayload{RoomID: 2, ProposalID: 20})

	for _, conn := range []*websocket.Conn{aliceRoom1, bob} {
		frame := readFrame(t, conn)
		assert.Equal(t, services.EventProposalCreated, frame.Event)
		assert.Equal(t, uint64(10), decode[services.ProposalPayload](t, frame).ProposalID)
	}

	// The second socket of the acting user never subscribed to room 1, so
	// the first thing it sees is the room 2 event.
	frame := readFrame(t, aliceRoom2)
	assert.Equal(t, services.EventProposalUpdated, frame.Event)
	assert.Equal(t, uint64(20), decode[services.ProposalPayload](t, frame).ProposalID)
}

func TestGateway_UnsubscribeIsIdempotent(t *testing.T) {
	env := setupGateway(t)
	env.members.add(1, aliceID)
	conn := env.dial(t, "alice-token")

	subscribe(t, conn, 1)
	require.Equal(t, 1, env.gateway.RoomSubscribers(1))

	for i := 0; i < 2; i++ {
		sendRoomRequest(t, conn, EventUnsubscribe, 1)
		frame := readFrame(t, conn)
		require.Equal(t, EventUnsubscribed, frame.Event)
	}
	assert.Zero(t, env.gateway.RoomSubscribers(1))

	_, rooms := env.gateway.Stats()
	assert.Zero(t, rooms)
}

func TestGateway_EvictFromRoom(t *testing.T) {
	env := setupGateway(t)
	env.members.add(1, aliceID, bobID)

	alice := env.dial(t, "alice-token")
	bob := env.dial(t, "bob-token")
	subscribe(t, alice, 1)
	subscribe(t, bob, 1)

	ctx := context.Background()
	env.gateway.EvictFromRoom(ctx, 1, bobID, services.RemovedPayload{RoomID: 1, UserID: bobID, Reason: services.RemovedKicked})

	frame := readFrame(t, bob)
	require.Equal(t, services.EventRoomRemoved, frame.Event)
	removed := decode[services.RemovedPayload](t, frame)
	assert.Equal(t, services.RemovedKicked, removed.Reason)
	assert.Equal(t, 1, env.gateway.RoomSubscribers(1))

	env.gateway.EmitToRoom(ctx, 1, services.EventMemberDeleted, services.MemberPayload{RoomID: 1, UserID: bobID})
	frame = readFrame(t, alice)
	assert.Equal(t, services.EventMemberDeleted, frame.Event)
}

func TestGateway_CloseRoom(t *testing.T) {
	env := setupGateway(t)
	env.members.add(1, aliceID, bobID)

	alice := env.dial(t, "alice-token")
	bob := env.dial(t, "bob-token")
	subscribe(t, alice, 1)
	subscribe(t, bob, 1)

	env.gateway.CloseRoom(context.Background(), 1, services.EventRoomDeleted, services.RoomPayload{RoomID: 1})

	for _, conn := range []*websocket.Conn{alice, bob} {
		frame := readFrame(t, conn)
		assert.Equal(t, services.EventRoomDeleted, frame.Event)
	}
	assert.Zero(t, env.gateway.RoomSubscribers(1))
}

func TestGateway_RelaysUserNotifications(t *testing.T) {
	env := setupGateway(t)
	alice := env.dial(t, "alice-token")
	bob := env.dial(t, "bob-token")

	ctx := context.Background()
	require.NoError(t, env.bus.Publish(ctx, pubsub.UserNotificationsTopic(aliceID), []byte(`{"id":5,"type":"FRIEND_REQUEST"}`)))
	require.NoError(t, env.bus.Publish(ctx, pubsub.UserNotificationsTopic(bobID), []byte(`{"id":6,"type":"SYSTEM"}`)))

	frame := readFrame(t, alice)
	require.Equal(t, EventNotificationCreated, frame.Event)
	assert.JSONEq(t, `{"id":5,"type":"FRIEND_REQUEST"}`, string(frame.Data))

	frame = readFrame(t, bob)
	require.Equal(t, EventNotificationCreated, frame.Event)
	assert.JSONEq(t, `{"id":6,"type":"SYSTEM"}`, string(frame.Data))
}

func TestGateway_DisconnectReleasesGroups(t *testing.T) {
	env := setupGateway(t)
	env.members.add(1, aliceID)

	conn := env.dial(t, "alice-token")
	subscribe(t, conn, 1)

	users, rooms := env.gateway.Stats()
	require.Equal(t, 1, users)
	require.Equal(t, 1, rooms)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		users, rooms := env.gateway.Stats()
		return users == 0 && rooms == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_RejectsMalformedFrames(t *testing.T) {
	env := setupGateway(t)
	conn := env.dial(t, "alice-token")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	frame := readFrame(t, conn)
	require.Equal(t, EventError, frame.Event)
	assert.Equal(t, apierrors.ErrCodeInvalidInput, decode[ErrorData](t, frame).Code)

	sendRoomRequest(t, conn, EventSubscribe, 0)
	frame = readFrame(t, conn)
	require.Equal(t, EventError, frame.Event)
	assert.Equal(t, "roomId is required", decode[ErrorData](t, frame).Message)

	require.NoError(t, conn.WriteJSON(Frame{Event: "chat:send"}))
	frame = readFrame(t, conn)
	require.Equal(t, EventError, frame.Event)
	assert.Equal(t, "chat:send", decode[ErrorData](t, frame).Event)
}

func TestGateway_DeliversLocallyWhenPublishFails(t *testing.T) {
	env := setupGateway(t)
	env.members.add(1, aliceID)

	conn := env.dial(t, "alice-token")
	subscribe(t, conn, 1)

	require.NoError(t, env.bus.Close())
	env.gateway.EmitToRoom(context.Background(), 1, services.EventVoteCreated, services.VotePayload{RoomID: 1, ProposalID: 3, UserID: aliceID})

	frame := readFrame(t, conn)
	assert.Equal(t, services.EventVoteCreated, frame.Event)
}

func TestGateway_KickDuringSubscribeIsNotMissed(t *testing.T) {
	env := setupGateway(t)
	env.members.add(7, aliceID, bobID)

	alice := env.dial(t, "alice-token")
	subscribe(t, alice, 7)
	bob := env.dial(t, "bob-token")

	// bob's membership is read, then the kick commits and its eviction is
	// applied before bob's socket joins the room.
	env.members.onNextRead(func(roomID, userID uint64) {
		env.members.remove(roomID, userID)
		env.gateway.EvictFromRoom(context.Background(), roomID, userID, services.RemovedPayload{
			RoomID: roomID, UserID: userID, Reason: services.RemovedKicked,
		})
	})

	sendRoomRequest(t, bob, EventSubscribe, 7)
	frame := readFrame(t, bob)
	require.Equal(t, EventError, frame.Event)
	assert.Equal(t, apierrors.ErrCodeForbidden, decode[ErrorData](t, frame).Code)
	assert.Equal(t, 1, env.gateway.RoomSubscribers(7))

	env.gateway.EmitToRoom(context.Background(), 7, services.EventProposalCreated, map[string]uint64{"roomId": 7})
	assert.Equal(t, services.EventProposalCreated, readFrame(t, alice).Event)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "bob must not receive room events after the kick")
}
