package models

import "time"

type VoteValue string

const (
	VoteYes   VoteValue = "YES"
	VoteNo    VoteValue = "NO"
	VoteMaybe VoteValue = "MAYBE"
)

// Valid reports whether v is YES, NO or MAYBE.
func (v VoteValue) Valid() bool {
	switch v {
	case VoteYes, VoteNo, VoteMaybe:
		return true
	}
	return false
}

type TripVote struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	ProposalID uint64    `gorm:"not null;uniqueIndex:idx_vote_proposal_user" json:"proposal_id"`
	UserID     uint64    `gorm:"not null;uniqueIndex:idx_vote_proposal_user" json:"user_id"`
	Vote       VoteValue `gorm:"type:varchar(10);not null" json:"vote"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
