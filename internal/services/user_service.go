package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/repository"
	"gorm.io/gorm"
)

// UserService provides account lookup and deletion.
type UserService struct {
	users   repository.UserRepository
	emitter RoomEmitter
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, emitter RoomEmitter, logger *slog.Logger) *UserService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &UserService{
		users:   users,
		emitter: emitter,
		logger:  logger.With("service", "users"),
	}
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// EnsureUser returns the user named username, creating it on first login.
func (s *UserService) EnsureUser(ctx context.Context, username, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, ErrInvalidUsername
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user = &models.User{Username: username, Email: email}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// DeleteAccount deletes a user. Rooms they created pass to their next-oldest
// member, who becomes ADMIN, and rooms where they were the last ADMIN promote
// that member too. Rooms with no one else in them are deleted.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint64) (*repository.AccountDeletion, error) {
	result, err := s.users.DeleteWithReassignment(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}

	deleted := make(map[uint64]bool, len(result.DeletedRoomIDs))
	for _, roomID := range result.DeletedRoomIDs {
		deleted[roomID] = true
		s.emitter.CloseRoom(ctx, roomID, EventRoomDeleted, RoomPayload{RoomID: roomID})
	}

	for _, roomID := range result.LeftRoomIDs {
		if deleted[roomID] {
			continue
		}
		s.emitter.EmitToRoom(ctx, roomID, EventMemberDeleted, MemberPayload{RoomID: roomID, UserID: userID})
		s.emitter.EvictFromRoom(ctx, roomID, userID, RemovedPayload{RoomID: roomID, UserID: userID, Reason: RemovedDeleted})
	}

	for i := range result.PromotedMembers {
		member := &result.PromotedMembers[i]
		s.emitter.EmitToRoom(ctx, member.RoomID, EventMemberUpdated, MemberPayload{
			RoomID: member.RoomID,
			UserID: member.UserID,
			Member: member,
		})
	}

	for i := range result.ReassignedRooms {
		room := &result.ReassignedRooms[i]
		s.emitter.EmitToRoom(ctx, room.ID, EventRoomUpdated, RoomPayload{RoomID: room.ID, Room: room})
	}

	s.logger.Info("account deleted",
		"user_id", userID,
		"reassigned_rooms", len(result.ReassignedRooms),
		"deleted_rooms", len(result.DeletedRoomIDs))
	return result, nil
}
