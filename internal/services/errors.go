package services

import (
	"errors"

	apierrors "github.com/LeBonSushi/ft-transcendence-sub000/internal/errors"
)

// Rooms and membership
var (
	ErrRoomNotFound       = apierrors.NotFoundError("room not found")
	ErrMemberNotFound     = apierrors.NotFoundError("room member not found")
	ErrNotRoomMember      = apierrors.ForbiddenError("you are not a member of this room")
	ErrNotRoomAdmin       = apierrors.ForbiddenError("only room admins can do this")
	ErrNotRoomCreator     = apierrors.ForbiddenError("only the room creator can delete the room")
	ErrLastAdmin          = apierrors.ForbiddenError("a room must keep at least one admin")
	ErrCannotKickYourself = apierrors.ForbiddenError("cannot kick yourself, leave the room instead")
	ErrAlreadyRoomMember  = apierrors.ConflictError("user is already a member of this room")
	ErrInvalidRoomName    = apierrors.InvalidInputError("room name must be between 1 and 255 characters")
	ErrInvalidRoomStatus  = apierrors.InvalidInputError("invalid room status")
	ErrInvalidRole        = apierrors.InvalidInputError("role must be ADMIN or MEMBER")
	ErrDescriptionTooLong = apierrors.InvalidInputError("description must be at most 1000 characters")
)

// Proposals, votes and activities
var (
	ErrProposalNotFound     = apierrors.NotFoundError("proposal not found")
	ErrVoteNotFound         = apierrors.NotFoundError("vote not found")
	ErrActivityNotFound     = apierrors.NotFoundError("activity not found")
	ErrNotActivityAuthor    = apierrors.ForbiddenError("only the author or a room admin can change this activity")
	ErrInvalidDestination   = apierrors.InvalidInputError("destination must be between 1 and 255 characters")
	ErrInvalidDateRange     = apierrors.InvalidInputError("end date must not be before start date")
	ErrInvalidBudget        = apierrors.InvalidInputError("budget must not be negative")
	ErrInvalidVote          = apierrors.InvalidInputError("vote must be YES, NO or MAYBE")
	ErrInvalidActivityTitle = apierrors.InvalidInputError("activity title cannot be empty")
	ErrInvalidCost          = apierrors.InvalidInputError("estimated cost must not be negative")
)

// Users and friendships
var (
	ErrUserNotFound           = apierrors.NotFoundError("user not found")
	ErrUserExists             = apierrors.ConflictError("username or email already taken")
	ErrInvalidUsername        = apierrors.InvalidInputError("username and email are required")
	ErrCannotFriendYourself   = apierrors.InvalidInputError("cannot send a friend request to yourself")
	ErrFriendshipExists       = apierrors.ConflictError("a relationship with this user already exists")
	ErrFriendRequestNotFound  = apierrors.NotFoundError("friend request not found")
	ErrNoRelationship         = apierrors.UnauthorizedError("no relationship with this user")
	ErrInvalidFriendshipState = apierrors.ConflictError("the relationship is not in a state that allows this")
)

// Notifications
var (
	ErrNotificationNotFound = apierrors.NotFoundError("notification not found")
	ErrNotificationAnswered = apierrors.ConflictError("notification already answered")

	// ErrUnknownNotificationType is an internal error: every type must have a template.
	ErrUnknownNotificationType = errors.New("unknown notification type")
	ErrEmptySystemMessage      = apierrors.InvalidInputError("system notifications need a title and a message")
)
