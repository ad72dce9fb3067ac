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

// ProposalService owns trip proposals, their votes and activity suggestions.
type ProposalService struct {
	rooms     repository.RoomRepository
	proposals repository.ProposalRepository
	notifier  Notifier
	emitter   RoomEmitter
	logger    *slog.Logger
}

// NewProposalService creates a new ProposalService.
func NewProposalService(rooms repository.RoomRepository, proposals repository.ProposalRepository, notifier Notifier, emitter RoomEmitter, logger *slog.Logger) *ProposalService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ProposalService{
		rooms:     rooms,
		proposals: proposals,
		notifier:  notifier,
		emitter:   emitter,
		logger:    logger.With("service", "proposals"),
	}
}

// ProposalInput represents parameters to create a proposal.
type ProposalInput struct {
	Destination string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Budget      *float64
}

// UpdateProposalInput holds the optional fields of a proposal update.
type UpdateProposalInput struct {
	Destination *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *float64
	ClearBudget bool
}

func validateProposal(p *models.TripProposal) error {
	dest := strings.TrimSpace(p.Destination)
	if dest == "" || len(dest) > constants.MaxDestinationLength {
		return ErrInvalidDestination
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() || p.EndDate.Before(p.StartDate) {
		return ErrInvalidDateRange
	}
	if p.Budget != nil && *p.Budget < 0 {
		return ErrInvalidBudget
	}
	if !validDescription(p.Description) {
		return ErrDescriptionTooLong
	}
	return nil
}

func (s *ProposalService) findProposal(ctx context.Context, proposalID uint64, preload ...string) (*models.TripProposal, error) {
	proposal, err := s.proposals.FindByID(ctx, proposalID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to find proposal: %w", err)
	}
	return proposal, nil
}

// CreateProposal adds a proposal to a room. Members only.
func (s *ProposalService) CreateProposal(ctx context.Context, roomID, userID uint64, input ProposalInput) (*models.TripProposal, error) {
	proposal := &models.TripProposal{
		RoomID:      roomID,
		CreatedByID: userID,
		Destination: strings.TrimSpace(input.Destination),
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Budget:      input.Budget,
		IsSelected:  false,
	}
	if err := validateProposal(proposal); err != nil {
		return nil, err
	}

	if _, err := requireMember(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	s.emitter.EmitToRoom(ctx, roomID, EventProposalCreated, ProposalPayload{RoomID: roomID, ProposalID: proposal.ID, Proposal: proposal})
	return proposal, nil
}

// ListProposals returns the proposals of a room with votes and activities.
func (s *ProposalService) ListProposals(ctx context.Context, roomID, userID uint64) ([]models.TripProposal, error) {
	if _, err := requireMember(ctx, s.rooms, roomID, userID); err != nil {
		return nil, err
	}

	proposals, err := s.proposals.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return proposals, nil
}

// GetProposal returns one proposal with votes and activities.
func (s *ProposalService) GetProposal(ctx context.Context, proposalID, userID uint64) (*models.TripProposal, error) {
	proposal, err := s.findProposal(ctx, proposalID, "Votes", "Activities")
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return nil, err
	}
	return proposal, nil
}

// UpdateProposal edits a proposal. Members only; selection is untouched.
func (s *ProposalService) UpdateProposal(ctx context.Context, proposalID, userID uint64, input UpdateProposalInput) (*models.TripProposal, error) {
	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return nil, err
	}

	if input.Destination != nil {
		proposal.Destination = strings.TrimSpace(*input.Destination)
	}
	if input.Description != nil {
		proposal.Description = *input.Description
	}
	if input.StartDate != nil {
		proposal.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		proposal.EndDate = *input.EndDate
	}
	if input.ClearBudget {
		proposal.Budget = nil
	} else if input.Budget != nil {
		proposal.Budget = input.Budget
	}

	if err := validateProposal(proposal); err != nil {
		return nil, err
	}

	if err := s.proposals.Update(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to update proposal: %w", err)
	}

	s.emitter.EmitToRoom(ctx, proposal.RoomID, EventProposalUpdated, ProposalPayload{RoomID: proposal.RoomID, ProposalID: proposal.ID, Proposal: proposal})
	return proposal, nil
}

// DeleteProposal removes a proposal with its votes and activities. Requires ADMIN.
func (s *ProposalService) DeleteProposal(ctx context.Context, proposalID, userID uint64) error {
	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if _, err := requireAdmin(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return err
	}

	if err := s.proposals.Delete(ctx, proposalID); err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}

	s.emitter.EmitToRoom(ctx, proposal.RoomID, EventProposalDeleted, ProposalPayload{RoomID: proposal.RoomID, ProposalID: proposalID})
	return nil
}

// SelectProposal makes proposalID the only selected proposal of its room.
// Requires ADMIN. Concurrent selections in one room serialize on the room row.
func (s *ProposalService) SelectProposal(ctx context.Context, proposalID, userID uint64) (*models.TripProposal, error) {
	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if _, err := requireAdmin(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return nil, err
	}

	if err := s.proposals.Select(ctx, proposal.RoomID, proposalID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to select proposal: %w", err)
	}

	proposal.IsSelected = true
	s.emitter.EmitToRoom(ctx, proposal.RoomID, EventProposalSelected, ProposalPayload{RoomID: proposal.RoomID, ProposalID: proposalID, Proposal: proposal})
	s.notifySelection(ctx, proposal, userID)
	return proposal, nil
}

func (s *ProposalService) notifySelection(ctx context.Context, proposal *models.TripProposal, actorID uint64) {
	if s.notifier == nil {
		return
	}

	members, err := s.rooms.ListMembers(ctx, proposal.RoomID)
	if err != nil {
		s.logger.Warn("failed to list members for selection notification", "room_id", proposal.RoomID, "error", err)
		return
	}

	roomID := proposal.RoomID
	for _, m := range members {
		if m.UserID == actorID {
			continue
		}
		payload := NotificationPayload{ActorID: actorID, RoomID: &roomID, Destination: proposal.Destination}
		if _, err := s.notifier.CreateNotification(ctx, models.NotificationProposalSelected, m.UserID, payload); err != nil {
			s.logger.Warn("failed to notify member of selection", "room_id", roomID, "user_id", m.UserID, "error", err)
		}
	}
}

// VoteOnProposal records the vote of userID, replacing any earlier one.
func (s *ProposalService) VoteOnProposal(ctx context.Context, proposalID, userID uint64, value models.VoteValue) (*models.TripVote, error) {
	if !value.Valid() {
		return nil, ErrInvalidVote
	}

	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return nil, err
	}

	if err := s.proposals.UpsertVote(ctx, &models.TripVote{ProposalID: proposalID, UserID: userID, Vote: value}); err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	vote, err := s.proposals.FindVote(ctx, proposalID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read vote: %w", err)
	}

	event := EventVoteUpdated
	if vote.CreatedAt.Equal(vote.UpdatedAt) {
		event = EventVoteCreated
	}
	s.emitter.EmitToRoom(ctx, proposal.RoomID, event, VotePayload{RoomID: proposal.RoomID, ProposalID: proposalID, UserID: userID, Vote: vote})
	return vote, nil
}

// UpdateVote changes an existing vote. Unlike VoteOnProposal it fails when
// userID has not voted yet.
func (s *ProposalService) UpdateVote(ctx context.Context, proposalID, userID uint64, value models.VoteValue) (*models.TripVote, error) {
	if !value.Valid() {
		return nil, ErrInvalidVote
	}

	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return nil, err
	}

	vote, err := s.proposals.FindVote(ctx, proposalID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoteNotFound
		}
		return nil, fmt.Errorf("failed to find vote: %w", err)
	}

	vote.Vote = value
	if err := s.proposals.UpdateVote(ctx, vote); err != nil {
		return nil, fmt.Errorf("failed to update vote: %w", err)
	}

	s.emitter.EmitToRoom(ctx, proposal.RoomID, EventVoteUpdated, VotePayload{RoomID: proposal.RoomID, ProposalID: proposalID, UserID: userID, Vote: vote})
	return vote, nil
}

// DeleteVote withdraws the vote of userID.
func (s *ProposalService) DeleteVote(ctx context.Context, proposalID, userID uint64) error {
	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if _, err := requireMember(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return err
	}

	deleted, err := s.proposals.DeleteVote(ctx, proposalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if !deleted {
		return ErrVoteNotFound
	}

	s.emitter.EmitToRoom(ctx, proposal.RoomID, EventVoteDeleted, VotePayload{RoomID: proposal.RoomID, ProposalID: proposalID, UserID: userID})
	return nil
}

// ListVotes returns the raw vote rows of a proposal.
func (s *ProposalService) ListVotes(ctx context.Context, proposalID, userID uint64) ([]models.TripVote, error) {
	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return nil, err
	}

	votes, err := s.proposals.ListVotes(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

// ActivityInput represents parameters to suggest an activity.
type ActivityInput struct {
	Title         string
	Description   string
	Location      string
	EstimatedCost *float64
}

// UpdateActivityInput holds the optional fields of an activity update.
type UpdateActivityInput struct {
	Title         *string
	Description   *string
	Location      *string
	EstimatedCost *float64
}

// CreateActivity suggests an activity on a proposal. Members only.
func (s *ProposalService) CreateActivity(ctx context.Context, proposalID, userID uint64, input ActivityInput) (*models.ActivitySuggestion, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidActivityTitle
	}
	if input.EstimatedCost != nil && *input.EstimatedCost < 0 {
		return nil, ErrInvalidCost
	}
	if !validDescription(input.Description) {
		return nil, ErrDescriptionTooLong
	}

	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return nil, err
	}

	suggestedBy := userID
	activity := &models.ActivitySuggestion{
		ProposalID:    proposalID,
		SuggestedByID: &suggestedBy,
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		Location:      input.Location,
		EstimatedCost: input.EstimatedCost,
	}
	if err := s.proposals.CreateActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	s.emitter.EmitToRoom(ctx, proposal.RoomID, EventActivityCreated, ActivityPayload{
		RoomID:     proposal.RoomID,
		ProposalID: proposalID,
		ActivityID: activity.ID,
		Activity:   activity,
	})
	return activity, nil
}

// ListActivities returns the activity suggestions of a proposal.
func (s *ProposalService) ListActivities(ctx context.Context, proposalID, userID uint64) ([]models.ActivitySuggestion, error) {
	proposal, err := s.findProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.rooms, proposal.RoomID, userID); err != nil {
		return nil, err
	}

	activities, err := s.proposals.ListActivities(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// authorizeActivity loads an activity and checks that userID is its author
// or an ADMIN of the room. It returns the room ID.
func (s *ProposalService) authorizeActivity(ctx context.Context, activityID, userID uint64) (*models.ActivitySuggestion, uint64, error) {
	activity, err := s.proposals.FindActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrActivityNotFound
		}
		return nil, 0, fmt.Errorf("failed to find activity: %w", err)
	}

	proposal, err := s.findProposal(ctx, activity.ProposalID)
	if err != nil {
		return nil, 0, err
	}

	member, err := requireMember(ctx, s.rooms, proposal.RoomID, userID)
	if err != nil {
		return nil, 0, err
	}

	isAuthor := activity.SuggestedByID != nil && *activity.SuggestedByID == userID
	if !isAuthor && member.Role != models.RoleAdmin {
		return nil, 0, ErrNotActivityAuthor
	}
	return activity, proposal.RoomID, nil
}

// UpdateActivity edits an activity. Author or ADMIN only.
func (s *ProposalService) UpdateActivity(ctx context.Context, activityID, userID uint64, input UpdateActivityInput) (*models.ActivitySuggestion, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, ErrInvalidActivityTitle
	}
	if input.EstimatedCost != nil && *input.EstimatedCost < 0 {
		return nil, ErrInvalidCost
	}
	if input.Description != nil && !validDescription(*input.Description) {
		return nil, ErrDescriptionTooLong
	}

	activity, roomID, err := s.authorizeActivity(ctx, activityID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		activity.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		activity.Description = *input.Description
	}
	if input.Location != nil {
		activity.Location = *input.Location
	}
	if input.EstimatedCost != nil {
		activity.EstimatedCost = input.EstimatedCost
	}

	if err := s.proposals.UpdateActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	s.emitter.EmitToRoom(ctx, roomID, EventActivityUpdated, ActivityPayload{
		RoomID:     roomID,
		ProposalID: activity.ProposalID,
		ActivityID: activity.ID,
		Activity:   activity,
	})
	return activity, nil
}

// DeleteActivity removes an activity. Author or ADMIN only.
func (s *ProposalService) DeleteActivity(ctx context.Context, activityID, userID uint64) error {
	activity, roomID, err := s.authorizeActivity(ctx, activityID, userID)
	if err != nil {
		return err
	}

	if err := s.proposals.DeleteActivity(ctx, activityID); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	s.emitter.EmitToRoom(ctx, roomID, EventActivityDeleted, ActivityPayload{
		RoomID:     roomID,
		ProposalID: activity.ProposalID,
		ActivityID: activityID,
	})
	return nil
}
