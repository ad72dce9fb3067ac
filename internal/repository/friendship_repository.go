package repository

import (
	"context"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"gorm.io/gorm"
)

// GormFriendshipRepository is a GORM implementation of FriendshipRepository
type GormFriendshipRepository struct {
	db *gorm.DB
}

// NewFriendshipRepository creates a new FriendshipRepository
func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &GormFriendshipRepository{db: db}
}

// pair restricts a query to rows linking a and b in either direction.
func pair(db *gorm.DB, a, b uint64) *gorm.DB {
	return db.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a)
}

// Create creates a friendship row
func (r *GormFriendshipRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	return translate(r.db.WithContext(ctx).Create(friendship).Error)
}

// FindByID finds a friendship row by ID
func (r *GormFriendshipRepository) FindByID(ctx context.Context, id uint64) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).First(&friendship, id).Error; err != nil {
		return nil, err
	}
	return &friendship, nil
}

// FindBetween finds the row linking two users in either direction
func (r *GormFriendshipRepository) FindBetween(ctx context.Context, a, b uint64) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := pair(r.db.WithContext(ctx), a, b).First(&friendship).Error; err != nil {
		return nil, err
	}
	return &friendship, nil
}

// FindDirected finds the row sent by senderID to recipientID with status
func (r *GormFriendshipRepository) FindDirected(ctx context.Context, senderID, recipientID uint64, status models.FriendshipStatus) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ? AND status = ?", senderID, recipientID, status).
		First(&friendship).Error; err != nil {
		return nil, err
	}
	return &friendship, nil
}

// TransitionDirected updates the status of a directed row
func (r *GormFriendshipRepository) TransitionDirected(ctx context.Context, senderID, recipientID uint64, from, to models.FriendshipStatus) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ? AND status = ?", senderID, recipientID, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// DeleteDirected deletes a directed row with status
func (r *GormFriendshipRepository) DeleteDirected(ctx context.Context, senderID, recipientID uint64, status models.FriendshipStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ? AND status = ?", senderID, recipientID, status).
		Delete(&models.Friendship{})
	return result.RowsAffected, result.Error
}

// TransitionBetween updates the status of the pair's rows whose status is in from
func (r *GormFriendshipRepository) TransitionBetween(ctx context.Context, a, b uint64, from []models.FriendshipStatus, to models.FriendshipStatus) (int64, error) {
	result := pair(r.db.WithContext(ctx).Model(&models.Friendship{}), a, b).
		Where("status IN ?", from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// DeleteBetween deletes the pair's rows whose status is in statuses
func (r *GormFriendshipRepository) DeleteBetween(ctx context.Context, a, b uint64, statuses []models.FriendshipStatus) (int64, error) {
	result := pair(r.db.WithContext(ctx), a, b).
		Where("status IN ?", statuses).
		Delete(&models.Friendship{})
	return result.RowsAffected, result.Error
}

// ListForUser lists rows with status touching userID in either direction
func (r *GormFriendshipRepository) ListForUser(ctx context.Context, userID uint64, status models.FriendshipStatus) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Friend").
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, status).
		Order("updated_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, err
	}
	return friendships, nil
}

// ListIncoming lists rows with status addressed to userID
func (r *GormFriendshipRepository) ListIncoming(ctx context.Context, userID uint64, status models.FriendshipStatus) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("friend_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, err
	}
	return friendships, nil
}

// ListOutgoing lists rows with status sent by userID
func (r *GormFriendshipRepository) ListOutgoing(ctx context.Context, userID uint64, status models.FriendshipStatus) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Preload("Friend").
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, err
	}
	return friendships, nil
}
