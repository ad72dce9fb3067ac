package dto

import (
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
)

// RoomDTO represents a room in API responses
type RoomDTO struct {
	ID          uint64            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	CreatorID   uint64            `json:"creator_id"`
	Status      models.RoomStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// RoomWithRoleDTO represents a room with the user's role
type RoomWithRoleDTO struct {
	RoomDTO
	Role     models.RoomRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}

// RoomMemberDTO represents a member in a room
type RoomMemberDTO struct {
	RoomID   uint64          `json:"room_id"`
	UserID   uint64          `json:"user_id"`
	User     *UserDTO        `json:"user,omitempty"`
	Role     models.RoomRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}

// RoomDetailDTO represents detailed room information
type RoomDetailDTO struct {
	RoomDTO
	Members  []RoomMemberDTO `json:"members"`
	YourRole models.RoomRole `json:"your_role,omitempty"`
}

// ToRoomDTO converts a Room model to RoomDTO
func ToRoomDTO(room models.Room) RoomDTO {
	return RoomDTO{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		CreatorID:   room.CreatorID,
		Status:      room.Status,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	}
}

// ToRoomWithRoleDTO converts a membership with its preloaded room
func ToRoomWithRoleDTO(member models.RoomMember) RoomWithRoleDTO {
	var room RoomDTO
	if member.Room != nil {
		room = ToRoomDTO(*member.Room)
	} else {
		room.ID = member.RoomID
	}
	return RoomWithRoleDTO{
		RoomDTO:  room,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToRoomMemberDTO converts a member to DTO
func ToRoomMemberDTO(member models.RoomMember) RoomMemberDTO {
	return RoomMemberDTO{
		RoomID:   member.RoomID,
		UserID:   member.UserID,
		User:     userRef(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToRoomMemberDTOs converts a list of members
func ToRoomMemberDTOs(members []models.RoomMember) []RoomMemberDTO {
	dtos := make([]RoomMemberDTO, len(members))
	for i, m := range members {
		dtos[i] = ToRoomMemberDTO(m)
	}
	return dtos
}

// ToRoomDetailDTO converts a room with preloaded members to detailed DTO
func ToRoomDetailDTO(room models.Room, userID uint64) RoomDetailDTO {
	detail := RoomDetailDTO{
		RoomDTO: ToRoomDTO(room),
		Members: ToRoomMemberDTOs(room.Members),
	}
	for _, m := range room.Members {
		if m.UserID == userID {
			detail.YourRole = m.Role
			break
		}
	}
	return detail
}
