package repository

import (
	"context"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRoomRepository is a GORM implementation of RoomRepository
type GormRoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &GormRoomRepository{db: db}
}

// WithinTransaction runs fn inside a transaction
func (r *GormRoomRepository) WithinTransaction(ctx context.Context, fn func(tx RoomRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRoomRepository{db: tx})
	})
}

// Create creates a room and its creator membership in a transaction
func (r *GormRoomRepository) Create(ctx context.Context, room *models.Room, creator *models.RoomMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}

		creator.RoomID = room.ID
		creator.UserID = room.CreatorID
		return translate(tx.Create(creator).Error)
	})
}

// FindByID finds a room by ID with optional preloading
func (r *GormRoomRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Room, error) {
	var room models.Room
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// LockByID reads the room with SELECT ... FOR UPDATE. Only meaningful inside
// WithinTransaction; sqlite ignores the locking clause.
func (r *GormRoomRepository) LockByID(ctx context.Context, id uint64) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// Update updates a room
func (r *GormRoomRepository) Update(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// Delete deletes a room and all related data in a transaction
func (r *GormRoomRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteRoomCascade(tx, id)
	})
}

// deleteRoomCascade removes a room and everything it owns using tx.
func deleteRoomCascade(tx *gorm.DB, roomID uint64) error {
	proposalIDs := tx.Model(&models.TripProposal{}).Select("id").Where("room_id = ?", roomID)

	if err := tx.Where("proposal_id IN (?)", proposalIDs).Delete(&models.ActivitySuggestion{}).Error; err != nil {
		return err
	}

	if err := tx.Where("proposal_id IN (?)", proposalIDs).Delete(&models.TripVote{}).Error; err != nil {
		return err
	}

	if err := tx.Where("room_id = ?", roomID).Delete(&models.TripProposal{}).Error; err != nil {
		return err
	}

	if err := tx.Where("room_id = ?", roomID).Delete(&models.RoomMember{}).Error; err != nil {
		return err
	}

	return tx.Delete(&models.Room{}, roomID).Error
}

// AddMember adds a member to a room
func (r *GormRoomRepository) AddMember(ctx context.Context, member *models.RoomMember) error {
	return translate(r.db.WithContext(ctx).Create(member).Error)
}

// FindMember finds a specific room member
func (r *GormRoomRepository) FindMember(ctx context.Context, roomID, userID uint64) (*models.RoomMember, error) {
	var member models.RoomMember
	if err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMemberRole sets the role of a member
func (r *GormRoomRepository) UpdateMemberRole(ctx context.Context, roomID, userID uint64, role models.RoomRole) error {
	result := r.db.WithContext(ctx).Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveMember removes a member from a room
func (r *GormRoomRepository) RemoveMember(ctx context.Context, roomID, userID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.RoomMember{})
	return result.RowsAffected > 0, result.Error
}

// CountMembersByRole counts the members of a room holding role
func (r *GormRoomRepository) CountMembersByRole(ctx context.Context, roomID uint64, role models.RoomRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomMember{}).
		Where("room_id = ? AND role = ?", roomID, role).
		Count(&count).Error
	return count, err
}

// ListMembers lists all members of a room
func (r *GormRoomRepository) ListMembers(ctx context.Context, roomID uint64) ([]models.RoomMember, error) {
	var members []models.RoomMember
	if err := r.db.WithContext(ctx).Preload("User").
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembershipsByUserID lists all rooms a user is a member of
func (r *GormRoomRepository) ListMembershipsByUserID(ctx context.Context, userID uint64) ([]models.RoomMember, error) {
	var memberships []models.RoomMember
	if err := r.db.WithContext(ctx).Preload("Room").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
