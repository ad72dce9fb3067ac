package services

import (
	"context"
	"testing"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendshipService_SendRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.friendships.SendRequest(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrCannotFriendYourself)

	_, err = env.friendships.SendRequest(ctx, alice.ID, bob.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)

	friendship, err := env.friendships.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, friendship.Status)

	// Either direction collides with the existing row.
	_, err = env.friendships.SendRequest(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrFriendshipExists)
	_, err = env.friendships.SendRequest(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrFriendshipExists)

	notifications := env.notificationsOf(t, bob.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationFriendRequest, notifications[0].Type)
	require.NotNil(t, notifications[0].FriendshipID)
	assert.Equal(t, friendship.ID, *notifications[0].FriendshipID)
	assert.Equal(t, "alice sent you a friend request", notifications[0].Message)
}

func TestFriendshipService_AcceptIsDirected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.friendships.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// The sender cannot accept their own request.
	_, err = env.friendships.AcceptRequest(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrFriendRequestNotFound)

	accepted, err := env.friendships.AcceptRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipAccepted, accepted.Status)

	_, err = env.friendships.AcceptRequest(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrFriendRequestNotFound)

	for _, id := range []uint64{alice.ID, bob.ID} {
		friends, err := env.friendships.ListFriends(ctx, id)
		require.NoError(t, err)
		assert.Len(t, friends, 1)
	}

	notifications := env.notificationsOf(t, alice.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationFriendAccepted, notifications[0].Type)
}

func TestFriendshipService_RejectRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.friendships.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	pending, err := env.friendships.ListPendingRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	sent, err := env.friendships.ListSentRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	assert.ErrorIs(t, env.friendships.RejectRequest(ctx, alice.ID, bob.ID), ErrFriendRequestNotFound)
	require.NoError(t, env.friendships.RejectRequest(ctx, bob.ID, alice.ID))

	// The pair can start over once the request is gone.
	_, err = env.friendships.SendRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
}

func TestFriendshipService_BlockAndUnblock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	_, err := env.friendships.BlockRequest(ctx, alice.ID, carol.ID)
	assert.ErrorIs(t, err, ErrNoRelationship)
	_, err = env.friendships.UnblockRequest(ctx, alice.ID, carol.ID)
	assert.ErrorIs(t, err, ErrNoRelationship)

	_, err = env.friendships.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.friendships.AcceptRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	// Either side may block.
	blocked, err := env.friendships.BlockRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipBlocked, blocked.Status)

	again, err := env.friendships.BlockRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipBlocked, again.Status)

	friends, err := env.friendships.ListFriends(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)

	unblocked, err := env.friendships.UnblockRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipAccepted, unblocked.Status)

	// Unblocking a friendship that is not blocked changes nothing.
	unblocked, err = env.friendships.UnblockRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipAccepted, unblocked.Status)
}

func TestFriendshipService_PendingRequestCannotBeBlockedIntoFriendship(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.friendships.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	for _, id := range []uint64{alice.ID, bob.ID} {
		other := bob.ID
		if id == bob.ID {
			other = alice.ID
		}
		_, err = env.friendships.BlockRequest(ctx, id, other)
		assert.ErrorIs(t, err, ErrInvalidFriendshipState)
		_, err = env.friendships.UnblockRequest(ctx, id, other)
		assert.ErrorIs(t, err, ErrInvalidFriendshipState)
	}

	friends, err := env.friendships.ListFriends(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)

	pending, err := env.friendships.ListPendingRequests(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.FriendshipPending, pending[0].Status)
}

func TestFriendshipService_DeleteFriend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.friendships.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Pending requests are rejected, not deleted.
	assert.ErrorIs(t, env.friendships.DeleteFriend(ctx, alice.ID, bob.ID), ErrNoRelationship)

	_, err = env.friendships.AcceptRequest(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, env.friendships.DeleteFriend(ctx, alice.ID, bob.ID))

	friends, err := env.friendships.ListFriends(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}
