package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds lookup indexes that AutoMigrate does not derive from the
// model tags. Only postgres is supported; other dialects are skipped.
func AddIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Membership lookups by user
		{"room_members", "idx_room_members_user_id", "user_id"},
		// Admin counting under the room lock
		{"room_members", "idx_room_members_room_role", "room_id, role"},

		// Selected proposal per room
		{"trip_proposals", "idx_trip_proposals_room_selected", "room_id, is_selected"},

		// Pending requests addressed to a user
		{"friendships", "idx_friendships_friend_status", "friend_id, status"},

		// Unread notifications per user, newest first
		{"notifications", "idx_notifications_user_read_created", "user_id, is_read, created_at DESC"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Scan(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// MigrateDatabase runs AutoMigrate followed by the extra indexes.
func MigrateDatabase(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
