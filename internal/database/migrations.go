package database

import (
	"fmt"

	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"gorm.io/gorm"
)

// AddIndexes adds composite indexes used by list and ranking queries.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   string
		name    string
		columns string
	}{
		// Top testers ordering
		{"testers", "idx_testers_ranking", "rating, bugs_count, registration_date"},

		// Rating aggregation groups bugs per tester by priority
		{"bugs", "idx_bugs_tester_priority", "tester_id, priority"},

		// Activity feed for a tester, newest first
		{"activity_history", "idx_activity_tester_created", "tester_id, created_at"},

		// Comment threads
		{"comments", "idx_comments_bug_created", "bug_id, created_at"},

		// Unread notifications page
		{"notifications", "idx_notifications_read_created", "is_read, created_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.model, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		logger.Info("Created index %s on %s(%s)", idx.name, idx.model, idx.columns)
	}

	return nil
}
