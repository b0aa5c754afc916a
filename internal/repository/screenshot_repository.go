package repository

import (
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormScreenshotRepository is a GORM implementation of ScreenshotRepository
type GormScreenshotRepository struct {
	db *gorm.DB
}

// NewScreenshotRepository creates a new ScreenshotRepository
func NewScreenshotRepository(db *gorm.DB) ScreenshotRepository {
	return &GormScreenshotRepository{db: db}
}

// CreateWithinLimit writes the parent bug row first so concurrent uploads to
// the same bug serialize on its row lock before counting.
func (r *GormScreenshotRepository) CreateWithinLimit(screenshot *models.Screenshot, limit int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Bug{}).
			Where("id = ?", screenshot.BugID).
			UpdateColumn("updated_at", time.Now())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var count int64
		if err := tx.Model(&models.Screenshot{}).Where("bug_id = ?", screenshot.BugID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(limit) {
			return ErrScreenshotLimitReached
		}

		return tx.Create(screenshot).Error
	})
}

func (r *GormScreenshotRepository) FindByID(id uint64) (*models.Screenshot, error) {
	var screenshot models.Screenshot
	if err := r.db.First(&screenshot, id).Error; err != nil {
		return nil, err
	}
	return &screenshot, nil
}

func (r *GormScreenshotRepository) ListByBug(bugID uint64) ([]models.Screenshot, error) {
	var screenshots []models.Screenshot
	if err := r.db.Where("bug_id = ?", bugID).
		Order("uploaded_at ASC").
		Order("id ASC").
		Find(&screenshots).Error; err != nil {
		return nil, err
	}
	return screenshots, nil
}

type screenshotStats struct {
	Count     int64
	TotalSize int64
}

func (r *GormScreenshotRepository) Stats(bugID uint64) (int64, int64, error) {
	var stats screenshotStats
	if err := r.db.Model(&models.Screenshot{}).
		Select("COUNT(*) AS count, COALESCE(SUM(file_size), 0) AS total_size").
		Where("bug_id = ?", bugID).
		Scan(&stats).Error; err != nil {
		return 0, 0, err
	}
	return stats.Count, stats.TotalSize, nil
}

func (r *GormScreenshotRepository) Delete(id uint64) error {
	result := r.db.Delete(&models.Screenshot{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
