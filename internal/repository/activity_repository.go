package repository

import (
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormActivityRepository is a GORM implementation of ActivityRepository
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) Create(activity *models.ActivityHistory) error {
	return r.db.Create(activity).Error
}

func (r *GormActivityRepository) ListByTester(testerID uint64, eventType *models.ActivityEventType, limit int) ([]models.ActivityHistory, error) {
	query := r.db.Where("tester_id = ?", testerID)
	if eventType != nil {
		query = query.Where("event_type = ?", *eventType)
	}

	var activities []models.ActivityHistory
	if err := query.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
