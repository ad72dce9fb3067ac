package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrReassignRoom is returned when handing over a room fails inside the account deletion transaction.
	ErrReassignRoom = errors.New("user repository: reassign room failed")
	// ErrDeleteRoom is returned when deleting an orphaned room fails inside the account deletion transaction.
	ErrDeleteRoom = errors.New("user repository: delete room failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CountByIDs counts how many of the given user IDs exist
func (r *GormUserRepository) CountByIDs(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// DeleteWithReassignment deletes a user together with everything tied to them.
// Every room the user created or belongs to keeps an ADMIN: the oldest other
// member is promoted when the user was the last one, and takes over rooms the
// user created. Rooms nobody else belongs to are deleted.
func (r *GormUserRepository) DeleteWithReassignment(ctx context.Context, userID uint64) (*AccountDeletion, error) {
	result := &AccountDeletion{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, userID).Error; err != nil {
			return err
		}

		var rooms []models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("creator_id = ? OR id IN (?)", userID,
				tx.Model(&models.RoomMember{}).Select("room_id").Where("user_id = ?", userID)).
			Order("id ASC").
			Find(&rooms).Error; err != nil {
			return err
		}

		for _, room := range rooms {
			var heir models.RoomMember
			err := tx.Where("room_id = ? AND user_id <> ?", room.ID, userID).
				Order("joined_at ASC, user_id ASC").
				First(&heir).Error

			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := deleteRoomCascade(tx, room.ID); err != nil {
					return fmt.Errorf("%w: %v", ErrDeleteRoom, err)
				}
				result.DeletedRoomIDs = append(result.DeletedRoomIDs, room.ID)
				continue
			}
			if err != nil {
				return err
			}

			promote := room.CreatorID == userID
			if !promote {
				var admins int64
				if err := tx.Model(&models.RoomMember{}).
					Where("room_id = ? AND user_id <> ? AND role = ?", room.ID, userID, models.RoleAdmin).
					Count(&admins).Error; err != nil {
					return err
				}
				promote = admins == 0
			}

			if promote && heir.Role != models.RoleAdmin {
				if err := tx.Model(&models.RoomMember{}).
					Where("room_id = ? AND user_id = ?", room.ID, heir.UserID).
					Update("role", models.RoleAdmin).Error; err != nil {
					return fmt.Errorf("%w: %v", ErrReassignRoom, err)
				}
				heir.Role = models.RoleAdmin
				result.PromotedMembers = append(result.PromotedMembers, heir)
			}

			if room.CreatorID == userID {
				room.CreatorID = heir.UserID
				if err := tx.Model(&models.Room{}).Where("id = ?", room.ID).
					Update("creator_id", heir.UserID).Error; err != nil {
					return fmt.Errorf("%w: %v", ErrReassignRoom, err)
				}
				result.ReassignedRooms = append(result.ReassignedRooms, room)
			}
		}

		var memberships []models.RoomMember
		if err := tx.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
			return err
		}
		for _, m := range memberships {
			result.LeftRoomIDs = append(result.LeftRoomIDs, m.RoomID)
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.RoomMember{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.TripVote{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.ActivitySuggestion{}).
			Where("suggested_by_id = ?", userID).
			Update("suggested_by_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ? OR friend_id = ?", userID, userID).Delete(&models.Friendship{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
