package repository

import (
	"context"
	"testing"
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/database"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestRoom(t *testing.T, db *gorm.DB, creator *models.User, members ...*models.User) *models.Room {
	t.Helper()

	room := &models.Room{Name: creator.Username + "'s trip", CreatorID: creator.ID}
	require.NoError(t, NewRoomRepository(db).Create(context.Background(), room, &models.RoomMember{
		Role:     models.RoleAdmin,
		JoinedAt: time.Now().Add(-time.Hour),
	}))

	for i, m := range members {
		require.NoError(t, db.Create(&models.RoomMember{
			RoomID:   room.ID,
			UserID:   m.ID,
			Role:     models.RoleMember,
			JoinedAt: time.Now().Add(time.Duration(i-len(members)) * time.Minute),
		}).Error)
	}
	return room
}

func createTestProposal(t *testing.T, db *gorm.DB, room *models.Room, destination string) *models.TripProposal {
	t.Helper()

	proposal := &models.TripProposal{
		RoomID:      room.ID,
		CreatedByID: room.CreatorID,
		Destination: destination,
		StartDate:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(proposal).Error)
	return proposal
}
