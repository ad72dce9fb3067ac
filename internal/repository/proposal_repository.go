package repository

import (
	"context"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProposalRepository is a GORM implementation of ProposalRepository
type GormProposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository creates a new ProposalRepository
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &GormProposalRepository{db: db}
}

// Create creates a new proposal
func (r *GormProposalRepository) Create(ctx context.Context, proposal *models.TripProposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

// FindByID finds a proposal by ID with optional preloading
func (r *GormProposalRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.TripProposal, error) {
	var proposal models.TripProposal
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&proposal, id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ListByRoom lists the proposals of a room, oldest first
func (r *GormProposalRepository) ListByRoom(ctx context.Context, roomID uint64) ([]models.TripProposal, error) {
	var proposals []models.TripProposal
	if err := r.db.WithContext(ctx).
		Preload("Votes").
		Preload("Activities").
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// Update updates a proposal. IsSelected is never written here; selection
// goes through Select.
func (r *GormProposalRepository) Update(ctx context.Context, proposal *models.TripProposal) error {
	return r.db.WithContext(ctx).Model(proposal).
		Select("destination", "description", "start_date", "end_date", "budget", "updated_at").
		Updates(proposal).Error
}

// Delete deletes a proposal with its votes and activities
func (r *GormProposalRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ?", id).Delete(&models.TripVote{}).Error; err != nil {
			return err
		}

		if err := tx.Where("proposal_id = ?", id).Delete(&models.ActivitySuggestion{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.TripProposal{}, id).Error
	})
}

// Select deselects every other proposal of the room and selects proposalID in
// one transaction. The room row lock serializes concurrent selections.
func (r *GormProposalRepository) Select(ctx context.Context, roomID, proposalID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&room, roomID).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.TripProposal{}).
			Where("room_id = ? AND id <> ? AND is_selected = ?", roomID, proposalID, true).
			Update("is_selected", false).Error; err != nil {
			return err
		}

		result := tx.Model(&models.TripProposal{}).
			Where("id = ? AND room_id = ?", proposalID, roomID).
			Update("is_selected", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpsertVote inserts or overwrites the vote on the (proposal_id, user_id) key
func (r *GormProposalRepository) UpsertVote(ctx context.Context, vote *models.TripVote) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote", "updated_at"}),
		}).
		Create(vote).Error
}

// FindVote finds the vote of a user on a proposal
func (r *GormProposalRepository) FindVote(ctx context.Context, proposalID, userID uint64) (*models.TripVote, error) {
	var vote models.TripVote
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ? AND user_id = ?", proposalID, userID).
		First(&vote).Error; err != nil {
		return nil, err
	}
	return &vote, nil
}

// UpdateVote updates a vote
func (r *GormProposalRepository) UpdateVote(ctx context.Context, vote *models.TripVote) error {
	return r.db.WithContext(ctx).Save(vote).Error
}

// DeleteVote deletes the vote of a user on a proposal
func (r *GormProposalRepository) DeleteVote(ctx context.Context, proposalID, userID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("proposal_id = ? AND user_id = ?", proposalID, userID).
		Delete(&models.TripVote{})
	return result.RowsAffected > 0, result.Error
}

// ListVotes lists all votes of a proposal
func (r *GormProposalRepository) ListVotes(ctx context.Context, proposalID uint64) ([]models.TripVote, error) {
	var votes []models.TripVote
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("id ASC").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

// CreateActivity creates an activity suggestion
func (r *GormProposalRepository) CreateActivity(ctx context.Context, activity *models.ActivitySuggestion) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// FindActivity finds an activity suggestion by ID
func (r *GormProposalRepository) FindActivity(ctx context.Context, id uint64) (*models.ActivitySuggestion, error) {
	var activity models.ActivitySuggestion
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

// UpdateActivity updates an activity suggestion
func (r *GormProposalRepository) UpdateActivity(ctx context.Context, activity *models.ActivitySuggestion) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

// DeleteActivity deletes an activity suggestion
func (r *GormProposalRepository) DeleteActivity(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.ActivitySuggestion{}, id).Error
}

// ListActivities lists the activity suggestions of a proposal
func (r *GormProposalRepository) ListActivities(ctx context.Context, proposalID uint64) ([]models.ActivitySuggestion, error) {
	var activities []models.ActivitySuggestion
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at ASC, id ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
