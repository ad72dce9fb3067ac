package models

import "time"

type RoomRole string

const (
	RoleAdmin  RoomRole = "ADMIN"
	RoleMember RoomRole = "MEMBER"
)

// Valid reports whether r is a known role.
func (r RoomRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type RoomMember struct {
	RoomID   uint64    `gorm:"primarykey" json:"room_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	Role     RoomRole  `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	Room *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
