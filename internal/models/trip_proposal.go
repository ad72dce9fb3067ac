package models

import "time"

type TripProposal struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	RoomID      uint64    `gorm:"not null;index" json:"room_id"`
	CreatedByID uint64    `gorm:"not null" json:"created_by_id"`
	Destination string    `gorm:"type:varchar(255);not null" json:"destination"`
	Description string    `gorm:"type:text" json:"description"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	Budget      *float64  `json:"budget"`
	IsSelected  bool      `gorm:"not null;default:false" json:"is_selected"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Votes      []TripVote           `gorm:"foreignKey:ProposalID" json:"votes,omitempty"`
	Activities []ActivitySuggestion `gorm:"foreignKey:ProposalID" json:"activities,omitempty"`
}
