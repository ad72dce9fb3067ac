package services

import (
	"context"
	"strings"
	"testing"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/constants"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService_CreateRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")

	room, err := env.rooms.CreateRoom(ctx, alice.ID, "  Lisbon  ", "summer")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", room.Name)
	assert.Equal(t, models.RoomStatusPlanning, room.Status)
	assert.Equal(t, alice.ID, room.CreatorID)

	member, err := env.roomRepo.FindMember(ctx, room.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, member.Role)

	_, err = env.rooms.CreateRoom(ctx, alice.ID, "   ", "")
	assert.ErrorIs(t, err, ErrInvalidRoomName)

	_, err = env.rooms.CreateRoom(ctx, alice.ID, strings.Repeat("x", 256), "")
	assert.ErrorIs(t, err, ErrInvalidRoomName)

	long := strings.Repeat("d", constants.MaxDescriptionLength+1)
	_, err = env.rooms.CreateRoom(ctx, alice.ID, "Porto", long)
	assert.ErrorIs(t, err, ErrDescriptionTooLong)
	_, err = env.rooms.UpdateRoom(ctx, room.ID, alice.ID, UpdateRoomInput{Description: &long})
	assert.ErrorIs(t, err, ErrDescriptionTooLong)
}

func TestRoomService_GetRoomRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	mallory := env.createUser(t, "mallory")
	room := env.createRoom(t, alice)

	got, err := env.rooms.GetRoom(ctx, room.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 1)

	_, err = env.rooms.GetRoom(ctx, room.ID, mallory.ID)
	assert.ErrorIs(t, err, ErrNotRoomMember)

	_, err = env.rooms.GetRoom(ctx, room.ID+100, alice.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomService_JoinRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	room := env.createRoom(t, alice)

	member, err := env.rooms.JoinRoom(ctx, room.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)

	_, err = env.rooms.JoinRoom(ctx, room.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyRoomMember)

	_, err = env.rooms.JoinRoom(ctx, room.ID+100, bob.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, ok := env.emitter.find("emit", EventMemberCreated)
	assert.True(t, ok)

	notifications := env.notificationsOf(t, alice.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRoomMemberJoined, notifications[0].Type)
	assert.Equal(t, "bob joined alice's trip", notifications[0].Message)
	assert.Empty(t, env.notificationsOf(t, bob.ID))
}

func TestRoomService_SoleAdminCannotLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	room := env.createRoom(t, alice, bob)

	err := env.rooms.LeaveRoom(ctx, room.ID, alice.ID)
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.Equal(t, int64(1), env.adminCount(t, room.ID))

	require.NoError(t, env.rooms.LeaveRoom(ctx, room.ID, bob.ID))
	ok, err := env.rooms.IsMember(ctx, room.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	evicted, found := env.emitter.find("evict", EventRoomRemoved)
	require.True(t, found)
	assert.Equal(t, bob.ID, evicted.UserID)
	assert.Equal(t, RemovedLeft, evicted.Payload.(RemovedPayload).Reason)

	err = env.rooms.LeaveRoom(ctx, room.ID, bob.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	// A lone admin stays blocked even with nobody else in the room.
	err = env.rooms.LeaveRoom(ctx, room.ID, alice.ID)
	assert.ErrorIs(t, err, ErrLastAdmin)
}

func TestRoomService_PromoteThenLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	room := env.createRoom(t, alice, bob)

	_, err := env.rooms.UpdateMemberRole(ctx, room.ID, alice.ID, models.RoleAdmin, bob.ID)
	assert.ErrorIs(t, err, ErrNotRoomAdmin)

	promoted, err := env.rooms.UpdateMemberRole(ctx, room.ID, bob.ID, models.RoleAdmin, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)
	assert.Equal(t, int64(2), env.adminCount(t, room.ID))

	require.NoError(t, env.rooms.LeaveRoom(ctx, room.ID, alice.ID))
	assert.Equal(t, int64(1), env.adminCount(t, room.ID))

	_, err = env.rooms.UpdateMemberRole(ctx, room.ID, bob.ID, models.RoleMember, bob.ID)
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.Equal(t, int64(1), env.adminCount(t, room.ID))
}

func TestRoomService_UpdateMemberRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	room := env.createRoom(t, alice, bob)

	_, err := env.rooms.UpdateMemberRole(ctx, room.ID, bob.ID, models.RoomRole("OWNER"), alice.ID)
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = env.rooms.UpdateMemberRole(ctx, room.ID, carol.ID, models.RoleAdmin, alice.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = env.rooms.UpdateMemberRole(ctx, room.ID, bob.ID, models.RoleAdmin, carol.ID)
	assert.ErrorIs(t, err, ErrNotRoomMember)

	// Setting the current role is a no-op.
	member, err := env.rooms.UpdateMemberRole(ctx, room.ID, bob.ID, models.RoleMember, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)

	_, err = env.rooms.UpdateMemberRole(ctx, room.ID, bob.ID, models.RoleAdmin, alice.ID)
	require.NoError(t, err)

	// With two admins, either may demote the other.
	demoted, err := env.rooms.UpdateMemberRole(ctx, room.ID, alice.ID, models.RoleMember, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, demoted.Role)
	assert.Equal(t, int64(1), env.adminCount(t, room.ID))
}

func TestRoomService_KickMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	room := env.createRoom(t, alice, bob, carol)

	err := env.rooms.KickMember(ctx, room.ID, carol.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotRoomAdmin)

	err = env.rooms.KickMember(ctx, room.ID, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrCannotKickYourself)

	require.NoError(t, env.rooms.KickMember(ctx, room.ID, bob.ID, alice.ID))

	err = env.rooms.KickMember(ctx, room.ID, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	evicted, found := env.emitter.find("evict", EventRoomRemoved)
	require.True(t, found)
	assert.Equal(t, RemovedKicked, evicted.Payload.(RemovedPayload).Reason)

	notifications := env.notificationsOf(t, bob.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRoomKicked, notifications[0].Type)
	assert.Equal(t, "You were removed from alice's trip by alice", notifications[0].Message)
}

func TestRoomService_UpdateRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	room := env.createRoom(t, alice, bob)

	confirmed := models.RoomStatusConfirmed
	_, err := env.rooms.UpdateRoom(ctx, room.ID, bob.ID, UpdateRoomInput{Status: &confirmed})
	assert.ErrorIs(t, err, ErrNotRoomAdmin)

	bogus := models.RoomStatus("ARCHIVED")
	_, err = env.rooms.UpdateRoom(ctx, room.ID, alice.ID, UpdateRoomInput{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidRoomStatus)

	updated, err := env.rooms.UpdateRoom(ctx, room.ID, alice.ID, UpdateRoomInput{Name: strPtr("Porto"), Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, "Porto", updated.Name)
	assert.Equal(t, models.RoomStatusConfirmed, updated.Status)

	ev, ok := env.emitter.find("emit", EventRoomUpdated)
	require.True(t, ok)
	assert.Equal(t, room.ID, ev.RoomID)
}

func TestRoomService_DeleteRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	room := env.createRoom(t, alice, bob)
	_, err := env.rooms.UpdateMemberRole(ctx, room.ID, bob.ID, models.RoleAdmin, alice.ID)
	require.NoError(t, err)

	// Admins who did not create the room cannot delete it.
	err = env.rooms.DeleteRoom(ctx, room.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotRoomCreator)

	require.NoError(t, env.rooms.DeleteRoom(ctx, room.ID, alice.ID))

	closed, ok := env.emitter.find("close", EventRoomDeleted)
	require.True(t, ok)
	assert.Equal(t, room.ID, closed.RoomID)

	err = env.rooms.DeleteRoom(ctx, room.ID, alice.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomService_ListRoomsAndMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.createRoom(t, alice)
	shared := env.createRoom(t, bob, alice)

	memberships, err := env.rooms.ListRoomsForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)

	members, err := env.rooms.ListMembers(ctx, shared.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, bob.ID, members[0].UserID)
	assert.Equal(t, alice.ID, members[1].UserID)
}
