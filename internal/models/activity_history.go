package models

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityEventType string

const (
	EventRegistration  ActivityEventType = "registration"
	EventBugFound      ActivityEventType = "bug_found"
	EventStatusChanged ActivityEventType = "status_changed"
	EventRatingUpdated ActivityEventType = "rating_updated"
)

func (t ActivityEventType) IsValid() bool {
	switch t {
	case EventRegistration, EventBugFound, EventStatusChanged, EventRatingUpdated:
		return true
	}
	return false
}

// IsUserFacing reports whether the event can be used as a history filter.
// Rating updates are recorded but not exposed as a filter.
func (t ActivityEventType) IsUserFacing() bool {
	switch t {
	case EventRegistration, EventBugFound, EventStatusChanged:
		return true
	}
	return false
}

// ActivityHistory is an append-only audit row; it is never updated.
type ActivityHistory struct {
	ID          uint64            `gorm:"primarykey" json:"id"`
	TesterID    uint64            `gorm:"not null;index" json:"testerId"`
	EventType   ActivityEventType `gorm:"type:varchar(30);not null;index" json:"eventType"`
	Description string            `gorm:"type:text;not null" json:"description"`
	Metadata    datatypes.JSON    `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"createdAt"`
}

func (ActivityHistory) TableName() string { return "activity_history" }
