package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationNewTester   NotificationType = "new_tester"
	NotificationCriticalBug NotificationType = "critical_bug"
	NotificationServerDown  NotificationType = "server_down"
	NotificationInfo        NotificationType = "info"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationNewTester, NotificationCriticalBug, NotificationServerDown, NotificationInfo:
		return true
	}
	return false
}

// Notification is created by system triggers only; admins may mark it read
// or delete it.
type Notification struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	Type      NotificationType `gorm:"type:varchar(30);not null;index" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
	Metadata  datatypes.JSON   `json:"metadata,omitempty"`
}
