package repository

import (
	"errors"

	"github.com/yukikurage/qa-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *GormNotificationRepository) FindByID(id uint64) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *GormNotificationRepository) List(filter NotificationFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{})
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *GormNotificationRepository) CountUnread() (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("is_read = ?", false).Count(&count).Error
	return count, err
}

func (r *GormNotificationRepository) MarkAsRead(id uint64) (*models.Notification, error) {
	notification, err := r.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !notification.IsRead {
		if err := r.db.Model(notification).UpdateColumn("is_read", true).Error; err != nil {
			return nil, err
		}
		notification.IsRead = true
	}
	return notification, nil
}

func (r *GormNotificationRepository) MarkAllAsRead() (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("is_read = ?", false).
		UpdateColumn("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *GormNotificationRepository) Delete(id uint64) (bool, error) {
	result := r.db.Delete(&models.Notification{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
