package models

import "time"

type TesterStatus string

const (
	TesterStatusActive    TesterStatus = "active"
	TesterStatusInactive  TesterStatus = "inactive"
	TesterStatusSuspended TesterStatus = "suspended"
)

// IsValid reports whether s is a known tester status.
func (s TesterStatus) IsValid() bool {
	switch s {
	case TesterStatusActive, TesterStatusInactive, TesterStatusSuspended:
		return true
	}
	return false
}

// Tester is a QA participant. BugsCount and Rating are derived from the
// tester's bugs and are only ever written by the rating recompute.
type Tester struct {
	ID               uint64       `gorm:"primarykey" json:"id"`
	Name             string       `gorm:"type:varchar(255);not null" json:"name"`
	Email            string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Nickname         *string      `gorm:"type:varchar(100)" json:"nickname"`
	Telegram         *string      `gorm:"type:varchar(100)" json:"telegram"`
	DeviceType       string       `gorm:"type:varchar(100);not null" json:"deviceType"`
	OS               string       `gorm:"column:os;type:varchar(100);not null" json:"os"`
	OSVersion        *string      `gorm:"column:os_version;type:varchar(50)" json:"osVersion"`
	Status           TesterStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	RegistrationDate time.Time    `gorm:"not null;index" json:"registrationDate"`
	LastActivityDate *time.Time   `json:"lastActivityDate"`
	BugsCount        int          `gorm:"not null;default:0" json:"bugsCount"`
	Rating           int          `gorm:"not null;default:0;index" json:"rating"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`

	// Relations
	Bugs []Bug `gorm:"foreignKey:TesterID" json:"-"`
}
