package repository

import (
	"context"
	"testing"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendshipRepository_OneRowPerPair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFriendshipRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, &models.Friendship{UserID: alice.ID, FriendID: bob.ID, Status: models.FriendshipPending}))

	err := repo.Create(ctx, &models.Friendship{UserID: bob.ID, FriendID: alice.ID, Status: models.FriendshipPending})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.UserID)
	assert.Equal(t, bob.ID, found.Other(alice.ID))
}

func TestFriendshipRepository_DirectedTransitions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFriendshipRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	require.NoError(t, repo.Create(ctx, &models.Friendship{UserID: alice.ID, FriendID: bob.ID, Status: models.FriendshipPending}))

	// Wrong direction does not match.
	n, err := repo.TransitionDirected(ctx, bob.ID, alice.ID, models.FriendshipPending, models.FriendshipAccepted)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.TransitionDirected(ctx, alice.ID, bob.ID, models.FriendshipPending, models.FriendshipAccepted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	friends, err := repo.ListForUser(ctx, bob.ID, models.FriendshipAccepted)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "alice", friends[0].User.Username)

	n, err = repo.DeleteBetween(ctx, bob.ID, alice.ID, []models.FriendshipStatus{models.FriendshipAccepted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFriendshipRepository_IncomingOutgoing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFriendshipRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	require.NoError(t, repo.Create(ctx, &models.Friendship{UserID: alice.ID, FriendID: bob.ID, Status: models.FriendshipPending}))
	require.NoError(t, repo.Create(ctx, &models.Friendship{UserID: carol.ID, FriendID: bob.ID, Status: models.FriendshipPending}))

	incoming, err := repo.ListIncoming(ctx, bob.ID, models.FriendshipPending)
	require.NoError(t, err)
	assert.Len(t, incoming, 2)

	outgoing, err := repo.ListOutgoing(ctx, alice.ID, models.FriendshipPending)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "bob", outgoing[0].Friend.Username)

	n, err := repo.DeleteDirected(ctx, carol.ID, bob.ID, models.FriendshipPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.TransitionBetween(ctx, bob.ID, alice.ID, []models.FriendshipStatus{models.FriendshipPending, models.FriendshipAccepted}, models.FriendshipBlocked)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
