package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/constants"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/repository"
	"gorm.io/gorm"
)

// RoomService owns rooms, memberships and roles. Every room keeps at least
// one ADMIN member for as long as it exists.
type RoomService struct {
	rooms    repository.RoomRepository
	notifier Notifier
	emitter  RoomEmitter
	logger   *slog.Logger
}

// NewRoomService creates a new RoomService. A nil emitter or logger discards
// its output.
func NewRoomService(rooms repository.RoomRepository, notifier Notifier, emitter RoomEmitter, logger *slog.Logger) *RoomService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RoomService{
		rooms:    rooms,
		notifier: notifier,
		emitter:  emitter,
		logger:   logger.With("service", "rooms"),
	}
}

func validRoomName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= constants.MaxRoomNameLength
}

func validDescription(description string) bool {
	return len(description) <= constants.MaxDescriptionLength
}

// CreateRoom creates a room with creatorID as its first ADMIN.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint64, name, description string) (*models.Room, error) {
	if !validRoomName(name) {
		return nil, ErrInvalidRoomName
	}
	if !validDescription(description) {
		return nil, ErrDescriptionTooLong
	}

	room := &models.Room{
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatorID:   creatorID,
		Status:      models.RoomStatusPlanning,
	}
	creator := &models.RoomMember{
		Role:     models.RoleAdmin,
		JoinedAt: time.Now(),
	}

	if err := s.rooms.Create(ctx, room, creator); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	room.Members = []models.RoomMember{*creator}
	return room, nil
}

// GetRoom returns a room with its members. Only members may read it.
func (s *RoomService) GetRoom(ctx context.Context, roomID, userID uint64) (*models.Room, error) {
	if _, err := requireMember(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	room, err := s.rooms.FindByID(ctx, roomID, "Members", "Members.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return room, nil
}

// ListRoomsForUser returns the memberships of userID with their rooms.
func (s *RoomService) ListRoomsForUser(ctx context.Context, userID uint64) ([]models.RoomMember, error) {
	memberships, err := s.rooms.ListMembershipsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return memberships, nil
}

// UpdateRoomInput holds the optional fields of a room update.
type UpdateRoomInput struct {
	Name        *string
	Description *string
	Status      *models.RoomStatus
}

// UpdateRoom applies input to a room. Requires ADMIN.
func (s *RoomService) UpdateRoom(ctx context.Context, roomID, requesterID uint64, input UpdateRoomInput) (*models.Room, error) {
	if input.Name != nil && !validRoomName(*input.Name) {
		return nil, ErrInvalidRoomName
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidRoomStatus
	}
	if input.Description != nil && !validDescription(*input.Description) {
		return nil, ErrDescriptionTooLong
	}

	if _, err := requireAdmin(ctx, s.rooms, roomID, requesterID); err != nil {
		return nil, err
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	if input.Name != nil {
		room.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		room.Description = *input.Description
	}
	if input.Status != nil {
		room.Status = *input.Status
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	s.emitter.EmitToRoom(ctx, room.ID, EventRoomUpdated, RoomPayload{RoomID: room.ID, Room: room})
	return room, nil
}

// DeleteRoom deletes a room and everything it owns. Only the creator may.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID, requesterID uint64) error {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to find room: %w", err)
	}

	if room.CreatorID != requesterID {
		return ErrNotRoomCreator
	}

	if err := s.rooms.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	s.emitter.CloseRoom(ctx, roomID, EventRoomDeleted, RoomPayload{RoomID: roomID})
	return nil
}

// JoinRoom adds userID to a room as MEMBER.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID uint64) (*models.RoomMember, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	member := &models.RoomMember{
		RoomID:   room.ID,
		UserID:   userID,
		Role:     models.RoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.rooms.AddMember(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRoomMember
		}
		return nil, fmt.Errorf("failed to add member to room: %w", err)
	}

	s.emitter.EmitToRoom(ctx, room.ID, EventMemberCreated, MemberPayload{RoomID: room.ID, UserID: userID, Member: member})
	s.notifyAdmins(ctx, room.ID, userID)
	return member, nil
}

// notifyAdmins tells every other admin of roomID that userID joined.
func (s *RoomService) notifyAdmins(ctx context.Context, roomID, userID uint64) {
	if s.notifier == nil {
		return
	}

	members, err := s.rooms.ListMembers(ctx, roomID)
	if err != nil {
		s.logger.Warn("failed to list admins for join notification", "room_id", roomID, "error", err)
		return
	}

	for _, m := range members {
		if m.Role != models.RoleAdmin || m.UserID == userID {
			continue
		}
		payload := NotificationPayload{ActorID: userID, RoomID: &roomID}
		if _, err := s.notifier.CreateNotification(ctx, models.NotificationRoomMemberJoined, m.UserID, payload); err != nil {
			s.logger.Warn("failed to notify admin", "room_id", roomID, "admin_id", m.UserID, "error", err)
		}
	}
}

// LeaveRoom removes userID from a room. The last ADMIN cannot leave.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID uint64) error {
	err := s.rooms.WithinTransaction(ctx, func(tx repository.RoomRepository) error {
		if _, err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}

		member, err := tx.FindMember(ctx, roomID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return fmt.Errorf("failed to find member: %w", err)
		}

		if member.Role == models.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx, roomID); err != nil {
				return err
			}
		}

		if _, err := tx.RemoveMember(ctx, roomID, userID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emitter.EmitToRoom(ctx, roomID, EventMemberDeleted, MemberPayload{RoomID: roomID, UserID: userID})
	s.emitter.EvictFromRoom(ctx, roomID, userID, RemovedPayload{RoomID: roomID, UserID: userID, Reason: RemovedLeft})
	return nil
}

// UpdateMemberRole sets the role of targetUserID. Requires ADMIN. Demoting
// the last ADMIN is forbidden.
func (s *RoomService) UpdateMemberRole(ctx context.Context, roomID, targetUserID uint64, role models.RoomRole, requesterID uint64) (*models.RoomMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	var target *models.RoomMember
	err := s.rooms.WithinTransaction(ctx, func(tx repository.RoomRepository) error {
		if _, err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}

		if err := requireAdminTx(ctx, tx, roomID, requesterID); err != nil {
			return err
		}

		var err error
		target, err = tx.FindMember(ctx, roomID, targetUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return fmt.Errorf("failed to find member: %w", err)
		}

		if target.Role == role {
			return nil
		}

		if target.Role == models.RoleAdmin && role == models.RoleMember {
			if err := ensureAnotherAdmin(ctx, tx, roomID); err != nil {
				return err
			}
		}

		if err := tx.UpdateMemberRole(ctx, roomID, targetUserID, role); err != nil {
			return fmt.Errorf("failed to update member role: %w", err)
		}
		target.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitter.EmitToRoom(ctx, roomID, EventMemberUpdated, MemberPayload{RoomID: roomID, UserID: targetUserID, Member: target})
	return target, nil
}

// KickMember removes targetUserID from a room. Requires ADMIN; admins leave
// rather than kick themselves.
func (s *RoomService) KickMember(ctx context.Context, roomID, targetUserID, requesterID uint64) error {
	err := s.rooms.WithinTransaction(ctx, func(tx repository.RoomRepository) error {
		if _, err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}

		if err := requireAdminTx(ctx, tx, roomID, requesterID); err != nil {
			return err
		}

		if targetUserID == requesterID {
			return ErrCannotKickYourself
		}

		removed, err := tx.RemoveMember(ctx, roomID, targetUserID)
		if err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		if !removed {
			return ErrMemberNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emitter.EmitToRoom(ctx, roomID, EventMemberDeleted, MemberPayload{RoomID: roomID, UserID: targetUserID})
	s.emitter.EvictFromRoom(ctx, roomID, targetUserID, RemovedPayload{RoomID: roomID, UserID: targetUserID, Reason: RemovedKicked})

	if s.notifier != nil {
		payload := NotificationPayload{ActorID: requesterID, RoomID: &roomID}
		if _, err := s.notifier.CreateNotification(ctx, models.NotificationRoomKicked, targetUserID, payload); err != nil {
			s.logger.Warn("failed to notify kicked member", "room_id", roomID, "user_id", targetUserID, "error", err)
		}
	}
	return nil
}

// ListMembers returns the members of a room, oldest first. Members only.
func (s *RoomService) ListMembers(ctx context.Context, roomID, userID uint64) ([]models.RoomMember, error) {
	if _, err := requireMember(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	members, err := s.rooms.ListMembers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// IsMember reports whether userID currently belongs to roomID.
func (s *RoomService) IsMember(ctx context.Context, roomID, userID uint64) (bool, error) {
	return NewMembership(s.rooms).IsMember(ctx, roomID, userID)
}

func lockRoom(ctx context.Context, tx repository.RoomRepository, roomID uint64) (*models.Room, error) {
	room, err := tx.LockByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to lock room: %w", err)
	}
	return room, nil
}

func requireAdminTx(ctx context.Context, tx repository.RoomRepository, roomID, userID uint64) error {
	member, err := tx.FindMember(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotRoomMember
		}
		return fmt.Errorf("failed to verify membership: %w", err)
	}
	if member.Role != models.RoleAdmin {
		return ErrNotRoomAdmin
	}
	return nil
}

// ensureAnotherAdmin fails with ErrLastAdmin unless the room has at least two
// admins. Must run under the room lock.
func ensureAnotherAdmin(ctx context.Context, tx repository.RoomRepository, roomID uint64) error {
	admins, err := tx.CountMembersByRole(ctx, roomID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}
