package models

import "time"

type ActivitySuggestion struct {
	ID            uint64    `gorm:"primarykey" json:"id"`
	ProposalID    uint64    `gorm:"not null;index" json:"proposal_id"`
	SuggestedByID *uint64   `gorm:"index" json:"suggested_by_id"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	Location      string    `gorm:"type:varchar(255)" json:"location"`
	EstimatedCost *float64  `json:"estimated_cost"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
