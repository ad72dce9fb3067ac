package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/events"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/repository"
	"gorm.io/gorm"
)

// FriendshipService drives the friend request lifecycle. A pair of users has
// at most one friendship row; UserID is the sender and FriendID the recipient.
type FriendshipService struct {
	friendships repository.FriendshipRepository
	users       repository.UserRepository
	notifier    Notifier
	logger      *slog.Logger
}

// NewFriendshipService creates a new FriendshipService.
func NewFriendshipService(friendships repository.FriendshipRepository, users repository.UserRepository, notifier Notifier, logger *slog.Logger) *FriendshipService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FriendshipService{
		friendships: friendships,
		users:       users,
		notifier:    notifier,
		logger:      logger.With("service", "friendships"),
	}
}

// RegisterHandlers subscribes the service to the domain events it reacts to.
func (s *FriendshipService) RegisterHandlers(d *events.Dispatcher) {
	d.Subscribe(events.FriendRequestAnsweredEvent, s.handleFriendRequestAnswered)
}

func (s *FriendshipService) handleFriendRequestAnswered(ctx context.Context, event events.Event) error {
	answered, ok := event.(events.FriendRequestAnswered)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}
	if !answered.Accepted {
		return nil
	}

	friendship, err := s.friendships.FindByID(ctx, answered.FriendshipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFriendRequestNotFound
		}
		return fmt.Errorf("failed to find friend request: %w", err)
	}
	if friendship.FriendID != answered.RecipientID {
		return ErrFriendRequestNotFound
	}
	// Already accepted by an earlier answer whose notification update failed.
	if friendship.Status == models.FriendshipAccepted {
		return nil
	}

	_, err = s.AcceptRequest(ctx, answered.RecipientID, friendship.UserID)
	return err
}

func (s *FriendshipService) notify(ctx context.Context, typ models.NotificationType, recipientID uint64, payload NotificationPayload) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.CreateNotification(ctx, typ, recipientID, payload); err != nil {
		s.logger.Warn("failed to create notification", "type", typ, "recipient_id", recipientID, "error", err)
	}
}

// SendRequest creates a PENDING request from userID to friendID and notifies
// friendID.
func (s *FriendshipService) SendRequest(ctx context.Context, userID, friendID uint64) (*models.Friendship, error) {
	if userID == friendID {
		return nil, ErrCannotFriendYourself
	}

	count, err := s.users.CountByIDs(ctx, []uint64{userID, friendID})
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	if count != 2 {
		return nil, ErrUserNotFound
	}

	friendship := &models.Friendship{
		UserID:   userID,
		FriendID: friendID,
		Status:   models.FriendshipPending,
	}
	if err := s.friendships.Create(ctx, friendship); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrFriendshipExists
		}
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	id := friendship.ID
	s.notify(ctx, models.NotificationFriendRequest, friendID, NotificationPayload{ActorID: userID, FriendshipID: &id})
	return friendship, nil
}

// AcceptRequest accepts the pending request that friendID sent to id.
func (s *FriendshipService) AcceptRequest(ctx context.Context, id, friendID uint64) (*models.Friendship, error) {
	n, err := s.friendships.TransitionDirected(ctx, friendID, id, models.FriendshipPending, models.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to accept friend request: %w", err)
	}
	if n != 1 {
		return nil, ErrFriendRequestNotFound
	}

	friendship, err := s.friendships.FindDirected(ctx, friendID, id, models.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to read friendship: %w", err)
	}

	fid := friendship.ID
	s.notify(ctx, models.NotificationFriendAccepted, friendID, NotificationPayload{ActorID: id, FriendshipID: &fid})
	return friendship, nil
}

// RejectRequest deletes the pending request that friendID sent to id.
func (s *FriendshipService) RejectRequest(ctx context.Context, id, friendID uint64) error {
	n, err := s.friendships.DeleteDirected(ctx, friendID, id, models.FriendshipPending)
	if err != nil {
		return fmt.Errorf("failed to reject friend request: %w", err)
	}
	if n == 0 {
		return ErrFriendRequestNotFound
	}
	return nil
}

// BlockRequest blocks an accepted friendship between userID and friendID.
// Pending requests are rejected instead.
func (s *FriendshipService) BlockRequest(ctx context.Context, userID, friendID uint64) (*models.Friendship, error) {
	return s.transition(ctx, userID, friendID, models.FriendshipAccepted, models.FriendshipBlocked)
}

// UnblockRequest turns a blocked relationship back into a friendship.
func (s *FriendshipService) UnblockRequest(ctx context.Context, userID, friendID uint64) (*models.Friendship, error) {
	return s.transition(ctx, userID, friendID, models.FriendshipBlocked, models.FriendshipAccepted)
}

// transition moves the pair's row from status from to status to. A row
// already in to is left alone, a missing row is ErrNoRelationship and a row in
// any other status is ErrInvalidFriendshipState.
func (s *FriendshipService) transition(ctx context.Context, userID, friendID uint64, from, to models.FriendshipStatus) (*models.Friendship, error) {
	n, err := s.friendships.TransitionBetween(ctx, userID, friendID, []models.FriendshipStatus{from}, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update friendship: %w", err)
	}

	friendship, err := s.friendships.FindBetween(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRelationship
		}
		return nil, fmt.Errorf("failed to read friendship: %w", err)
	}
	if n == 0 && friendship.Status != to {
		return nil, ErrInvalidFriendshipState
	}
	return friendship, nil
}

// DeleteFriend removes an ACCEPTED or BLOCKED relationship.
func (s *FriendshipService) DeleteFriend(ctx context.Context, userID, friendID uint64) error {
	n, err := s.friendships.DeleteBetween(ctx, userID, friendID,
		[]models.FriendshipStatus{models.FriendshipAccepted, models.FriendshipBlocked})
	if err != nil {
		return fmt.Errorf("failed to delete friend: %w", err)
	}
	if n == 0 {
		return ErrNoRelationship
	}
	return nil
}

// ListFriends returns the accepted friendships of userID.
func (s *FriendshipService) ListFriends(ctx context.Context, userID uint64) ([]models.Friendship, error) {
	friendships, err := s.friendships.ListForUser(ctx, userID, models.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friendships, nil
}

// ListPendingRequests returns the requests waiting for userID's answer.
func (s *FriendshipService) ListPendingRequests(ctx context.Context, userID uint64) ([]models.Friendship, error) {
	friendships, err := s.friendships.ListIncoming(ctx, userID, models.FriendshipPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	return friendships, nil
}

// ListSentRequests returns the requests userID sent that are still pending.
func (s *FriendshipService) ListSentRequests(ctx context.Context, userID uint64) ([]models.Friendship, error) {
	friendships, err := s.friendships.ListOutgoing(ctx, userID, models.FriendshipPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent requests: %w", err)
	}
	return friendships, nil
}
