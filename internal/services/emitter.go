package services

import (
	"context"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
)

// Realtime event names
const (
	EventRoomUpdated = "room:updated"
	EventRoomDeleted = "room:deleted"
	EventRoomRemoved = "room:removed"

	EventMemberCreated = "member:created"
	EventMemberUpdated = "member:updated"
	EventMemberDeleted = "member:deleted"

	EventProposalCreated  = "proposal:created"
	EventProposalUpdated  = "proposal:updated"
	EventProposalDeleted  = "proposal:deleted"
	EventProposalSelected = "proposal:selected"

	EventVoteCreated = "vote:created"
	EventVoteUpdated = "vote:updated"
	EventVoteDeleted = "vote:deleted"

	EventActivityCreated = "activity:created"
	EventActivityUpdated = "activity:updated"
	EventActivityDeleted = "activity:deleted"
)

// Reasons carried by room:removed
const (
	RemovedLeft    = "left"
	RemovedKicked  = "kicked"
	RemovedDeleted = "deleted"
)

// RoomEmitter pushes events to the sockets subscribed to a room. Emission is
// best effort and never fails the operation that triggered it.
type RoomEmitter interface {
	// EmitToRoom delivers event to every socket subscribed to roomID.
	EmitToRoom(ctx context.Context, roomID uint64, event string, payload interface{})

	// EvictFromRoom sends room:removed to userID's sockets subscribed to
	// roomID and drops them from the room.
	EvictFromRoom(ctx context.Context, roomID, userID uint64, payload RemovedPayload)

	// CloseRoom sends event to the room and then drops every socket from it.
	CloseRoom(ctx context.Context, roomID uint64, event string, payload interface{})
}

// NopEmitter discards every event.
type NopEmitter struct{}

func (NopEmitter) EmitToRoom(context.Context, uint64, string, interface{}) {}

func (NopEmitter) EvictFromRoom(context.Context, uint64, uint64, RemovedPayload) {}

func (NopEmitter) CloseRoom(context.Context, uint64, string, interface{}) {}

type RoomPayload struct {
	RoomID uint64       `json:"roomId"`
	Room   *models.Room `json:"room,omitempty"`
}

type RemovedPayload struct {
	RoomID uint64 `json:"roomId"`
	UserID uint64 `json:"userId"`
	Reason string `json:"reason"`
}

type MemberPayload struct {
	RoomID uint64             `json:"roomId"`
	UserID uint64             `json:"userId"`
	Member *models.RoomMember `json:"member,omitempty"`
}

type ProposalPayload struct {
	RoomID     uint64               `json:"roomId"`
	ProposalID uint64               `json:"proposalId"`
	Proposal   *models.TripProposal `json:"proposal,omitempty"`
}

type VotePayload struct {
	RoomID     uint64           `json:"roomId"`
	ProposalID uint64           `json:"proposalId"`
	UserID     uint64           `json:"userId"`
	Vote       *models.TripVote `json:"vote,omitempty"`
}

type ActivityPayload struct {
	RoomID     uint64                     `json:"roomId"`
	ProposalID uint64                     `json:"proposalId"`
	ActivityID uint64                     `json:"activityId"`
	Activity   *models.ActivitySuggestion `json:"activity,omitempty"`
}
