package models

import "time"

type RoomStatus string

const (
	RoomStatusPlanning  RoomStatus = "PLANNING"
	RoomStatusConfirmed RoomStatus = "CONFIRMED"
	RoomStatusCompleted RoomStatus = "COMPLETED"
	RoomStatusCancelled RoomStatus = "CANCELLED"
)

// Valid reports whether s is one of the known room statuses.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusPlanning, RoomStatusConfirmed, RoomStatusCompleted, RoomStatusCancelled:
		return true
	}
	return false
}

type Room struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	CreatorID   uint64     `gorm:"not null;index" json:"creator_id"`
	Status      RoomStatus `gorm:"type:varchar(20);not null;default:'PLANNING'" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Members   []RoomMember   `gorm:"foreignKey:RoomID" json:"members,omitempty"`
	Proposals []TripProposal `gorm:"foreignKey:RoomID" json:"proposals,omitempty"`
}
