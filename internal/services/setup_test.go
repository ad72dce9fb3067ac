package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/database"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/events"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/pubsub"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var errPublish = errors.New("bus unavailable")

type emitted struct {
	Kind    string
	RoomID  uint64
	UserID  uint64
	Event   string
	Payload interface{}
}

// recordingEmitter keeps every room emission in order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *recordingEmitter) EmitToRoom(_ context.Context, roomID uint64, event string, payload interface{}) {
	e.record(emitted{Kind: "emit", RoomID: roomID, Event: event, Payload: payload})
}

func (e *recordingEmitter) EvictFromRoom(_ context.Context, roomID, userID uint64, payload RemovedPayload) {
	e.record(emitted{Kind: "evict", RoomID: roomID, UserID: userID, Event: EventRoomRemoved, Payload: payload})
}

func (e *recordingEmitter) CloseRoom(_ context.Context, roomID uint64, event string, payload interface{}) {
	e.record(emitted{Kind: "close", RoomID: roomID, Event: event, Payload: payload})
}

func (e *recordingEmitter) record(ev emitted) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

func (e *recordingEmitter) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.events))
	for i, ev := range e.events {
		names[i] = ev.Event
	}
	return names
}

func (e *recordingEmitter) find(kind, event string) (emitted, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.events {
		if ev.Kind == kind && ev.Event == event {
			return ev, true
		}
	}
	return emitted{}, false
}

// recordingBus wraps a MemoryBus, remembers the topics published to and can
// be made to fail.
type recordingBus struct {
	*pubsub.MemoryBus

	mu        sync.Mutex
	topics    []string
	failAfter bool
}

func (b *recordingBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	fail := b.failAfter
	if !fail {
		b.topics = append(b.topics, topic)
	}
	b.mu.Unlock()

	if fail {
		return errPublish
	}
	return b.MemoryBus.Publish(ctx, topic, payload)
}

func (b *recordingBus) fail() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failAfter = true
}

func (b *recordingBus) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.topics...)
}

type testEnv struct {
	db      *gorm.DB
	emitter *recordingEmitter
	bus     *recordingBus

	roomRepo         repository.RoomRepository
	proposalRepo     repository.ProposalRepository
	friendshipRepo   repository.FriendshipRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository

	rooms         *RoomService
	proposals     *ProposalService
	friendships   *FriendshipService
	notifications *NotificationService
	users         *UserService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{
		db:               db,
		emitter:          &recordingEmitter{},
		bus:              &recordingBus{MemoryBus: pubsub.NewMemoryBus()},
		roomRepo:         repository.NewRoomRepository(db),
		proposalRepo:     repository.NewProposalRepository(db),
		friendshipRepo:   repository.NewFriendshipRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		userRepo:         repository.NewUserRepository(db),
	}

	dispatcher := events.NewDispatcher()
	env.notifications = NewNotificationService(env.notificationRepo, env.userRepo, env.roomRepo, env.bus, dispatcher, nil)
	env.friendships = NewFriendshipService(env.friendshipRepo, env.userRepo, env.notifications, nil)
	env.friendships.RegisterHandlers(dispatcher)
	env.rooms = NewRoomService(env.roomRepo, env.notifications, env.emitter, nil)
	env.proposals = NewProposalService(env.roomRepo, env.proposalRepo, env.notifications, env.emitter, nil)
	env.users = NewUserService(env.userRepo, env.emitter, nil)
	return env
}

func (env *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

// createRoom creates a room owned by creator and joins members in order.
func (env *testEnv) createRoom(t *testing.T, creator *models.User, members ...*models.User) *models.Room {
	t.Helper()
	ctx := context.Background()

	room, err := env.rooms.CreateRoom(ctx, creator.ID, creator.Username+"'s trip", "")
	require.NoError(t, err)
	for _, m := range members {
		_, err := env.rooms.JoinRoom(ctx, room.ID, m.ID)
		require.NoError(t, err)
	}
	return room
}

func (env *testEnv) createProposal(t *testing.T, room *models.Room, author *models.User, destination string) *models.TripProposal {
	t.Helper()

	proposal, err := env.proposals.CreateProposal(context.Background(), room.ID, author.ID, ProposalInput{
		Destination: destination,
		StartDate:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return proposal
}

func (env *testEnv) adminCount(t *testing.T, roomID uint64) int64 {
	t.Helper()

	n, err := env.roomRepo.CountMembersByRole(context.Background(), roomID, models.RoleAdmin)
	require.NoError(t, err)
	return n
}

func (env *testEnv) notificationsOf(t *testing.T, userID uint64) []models.Notification {
	t.Helper()

	var notifications []models.Notification
	require.NoError(t, env.db.Where("user_id = ?", userID).Order("id ASC").Find(&notifications).Error)
	return notifications
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }
