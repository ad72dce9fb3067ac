package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/repository"
	"gorm.io/gorm"
)

// Membership answers membership questions for the realtime gateway, which is
// built before the services that emit through it.
type Membership struct {
	rooms repository.RoomRepository
}

func NewMembership(rooms repository.RoomRepository) *Membership {
	return &Membership{rooms: rooms}
}

// IsMember reports whether userID currently belongs to roomID.
func (m *Membership) IsMember(ctx context.Context, roomID, userID uint64) (bool, error) {
	if _, err := m.rooms.FindMember(ctx, roomID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify membership: %w", err)
	}
	return true, nil
}

// requireMember returns the membership of userID in roomID. A missing room is
// ErrRoomNotFound and a missing membership ErrNotRoomMember.
func requireMember(ctx context.Context, rooms repository.RoomRepository, roomID, userID uint64) (*models.RoomMember, error) {
	member, err := rooms.FindMember(ctx, roomID, userID)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	if _, err := rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return nil, ErrNotRoomMember
}

// requireAdmin is requireMember followed by an ADMIN role check.
func requireAdmin(ctx context.Context, rooms repository.RoomRepository, roomID, userID uint64) (*models.RoomMember, error) {
	member, err := requireMember(ctx, rooms, roomID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.RoleAdmin {
		return nil, ErrNotRoomAdmin
	}
	return member, nil
}
