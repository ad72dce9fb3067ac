package repository

import (
	"context"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ctx context.Context, ids []uint64) (int64, error)

	// DeleteWithReassignment deletes a user in one transaction. Rooms the user
	// created pass to their next-oldest member, or are deleted when the user
	// was alone in them.
	DeleteWithReassignment(ctx context.Context, userID uint64) (*AccountDeletion, error)
}

// AccountDeletion reports what happened to the rooms of a deleted user.
type AccountDeletion struct {
	// ReassignedRooms were created by the user and now belong to another member.
	ReassignedRooms []models.Room
	// PromotedMembers became ADMIN so their room keeps one.
	PromotedMembers []models.RoomMember
	DeletedRoomIDs  []uint64
	LeftRoomIDs     []uint64
}

// RoomRepository defines the interface for room and membership data access
type RoomRepository interface {
	// WithinTransaction runs fn with a repository bound to a single transaction
	WithinTransaction(ctx context.Context, fn func(tx RoomRepository) error) error

	// Create creates a room and its creator membership atomically
	Create(ctx context.Context, room *models.Room, creator *models.RoomMember) error

	// FindByID finds a room by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Room, error)

	// LockByID reads a room with a row lock held until the transaction ends
	LockByID(ctx context.Context, id uint64) (*models.Room, error)

	// Update updates a room
	Update(ctx context.Context, room *models.Room) error

	// Delete deletes a room and everything it owns
	Delete(ctx context.Context, id uint64) error

	// AddMember adds a member to a room. Returns ErrDuplicate if present.
	AddMember(ctx context.Context, member *models.RoomMember) error

	// FindMember finds a specific room member
	FindMember(ctx context.Context, roomID, userID uint64) (*models.RoomMember, error)

	// UpdateMemberRole sets the role of a member
	UpdateMemberRole(ctx context.Context, roomID, userID uint64, role models.RoomRole) error

	// RemoveMember removes a member and reports whether a row was deleted
	RemoveMember(ctx context.Context, roomID, userID uint64) (bool, error)

	// CountMembersByRole counts the members of a room holding role
	CountMembersByRole(ctx context.Context, roomID uint64, role models.RoomRole) (int64, error)

	// ListMembers lists all members of a room, oldest first
	ListMembers(ctx context.Context, roomID uint64) ([]models.RoomMember, error)

	// ListMembershipsByUserID lists all rooms a user is a member of
	ListMembershipsByUserID(ctx context.Context, userID uint64) ([]models.RoomMember, error)
}

// ProposalRepository defines the interface for proposals, votes and activities
type ProposalRepository interface {
	// Create creates a new proposal
	Create(ctx context.Context, proposal *models.TripProposal) error

	// FindByID finds a proposal by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.TripProposal, error)

	// ListByRoom lists the proposals of a room with votes and activities
	ListByRoom(ctx context.Context, roomID uint64) ([]models.TripProposal, error)

	// Update updates a proposal
	Update(ctx context.Context, proposal *models.TripProposal) error

	// Delete deletes a proposal with its votes and activities
	Delete(ctx context.Context, id uint64) error

	// Select marks proposalID as the only selected proposal of roomID
	Select(ctx context.Context, roomID, proposalID uint64) error

	// UpsertVote inserts the vote or overwrites the value of the existing
	// (proposal, user) row in a single statement
	UpsertVote(ctx context.Context, vote *models.TripVote) error

	// FindVote finds the vote of a user on a proposal
	FindVote(ctx context.Context, proposalID, userID uint64) (*models.TripVote, error)

	// UpdateVote updates a vote
	UpdateVote(ctx context.Context, vote *models.TripVote) error

	// DeleteVote deletes a vote and reports whether a row was deleted
	DeleteVote(ctx context.Context, proposalID, userID uint64) (bool, error)

	// ListVotes lists all votes of a proposal
	ListVotes(ctx context.Context, proposalID uint64) ([]models.TripVote, error)

	// CreateActivity creates an activity suggestion
	CreateActivity(ctx context.Context, activity *models.ActivitySuggestion) error

	// FindActivity finds an activity suggestion by ID
	FindActivity(ctx context.Context, id uint64) (*models.ActivitySuggestion, error)

	// UpdateActivity updates an activity suggestion
	UpdateActivity(ctx context.Context, activity *models.ActivitySuggestion) error

	// DeleteActivity deletes an activity suggestion
	DeleteActivity(ctx context.Context, id uint64) error

	// ListActivities lists the activity suggestions of a proposal
	ListActivities(ctx context.Context, proposalID uint64) ([]models.ActivitySuggestion, error)
}

// FriendshipRepository defines the interface for friendship data access
type FriendshipRepository interface {
	// Create creates a friendship row. Returns ErrDuplicate when the pair
	// already has one.
	Create(ctx context.Context, friendship *models.Friendship) error

	// FindByID finds a friendship row by ID
	FindByID(ctx context.Context, id uint64) (*models.Friendship, error)

	// FindBetween finds the row linking two users in either direction
	FindBetween(ctx context.Context, a, b uint64) (*models.Friendship, error)

	// FindDirected finds the row sent by senderID to recipientID with status
	FindDirected(ctx context.Context, senderID, recipientID uint64, status models.FriendshipStatus) (*models.Friendship, error)

	// TransitionDirected updates the status of the directed row matching
	// from and returns the number of rows changed
	TransitionDirected(ctx context.Context, senderID, recipientID uint64, from, to models.FriendshipStatus) (int64, error)

	// DeleteDirected deletes the directed row with status and returns the
	// number of rows deleted
	DeleteDirected(ctx context.Context, senderID, recipientID uint64, status models.FriendshipStatus) (int64, error)

	// TransitionBetween updates the status of any row linking the pair whose
	// status is in from, in either direction
	TransitionBetween(ctx context.Context, a, b uint64, from []models.FriendshipStatus, to models.FriendshipStatus) (int64, error)

	// DeleteBetween deletes any row linking the pair whose status is in statuses
	DeleteBetween(ctx context.Context, a, b uint64, statuses []models.FriendshipStatus) (int64, error)

	// ListForUser lists rows with status touching userID in either direction
	ListForUser(ctx context.Context, userID uint64, status models.FriendshipStatus) ([]models.Friendship, error)

	// ListIncoming lists rows with status addressed to userID
	ListIncoming(ctx context.Context, userID uint64, status models.FriendshipStatus) ([]models.Friendship, error)

	// ListOutgoing lists rows with status sent by userID
	ListOutgoing(ctx context.Context, userID uint64, status models.FriendshipStatus) ([]models.Friendship, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create persists a notification
	Create(ctx context.Context, notification *models.Notification) error

	// FindByID finds a notification by ID
	FindByID(ctx context.Context, id uint64) (*models.Notification, error)

	// ListByUser lists a user's notifications, newest first
	ListByUser(ctx context.Context, userID uint64, unreadOnly bool, page utils.PaginationParams) ([]models.Notification, error)

	// CountUnread counts a user's unread notifications
	CountUnread(ctx context.Context, userID uint64) (int64, error)

	// Update updates a notification
	Update(ctx context.Context, notification *models.Notification) error

	// MarkAllRead marks every unread notification of a user as read
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}
