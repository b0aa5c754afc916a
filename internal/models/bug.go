package models

import "time"

type BugPriority string

const (
	BugPriorityLow      BugPriority = "low"
	BugPriorityMedium   BugPriority = "medium"
	BugPriorityHigh     BugPriority = "high"
	BugPriorityCritical BugPriority = "critical"
)

// BugPriorities lists priorities from most to least severe.
var BugPriorities = []BugPriority{BugPriorityCritical, BugPriorityHigh, BugPriorityMedium, BugPriorityLow}

func (p BugPriority) IsValid() bool {
	switch p {
	case BugPriorityLow, BugPriorityMedium, BugPriorityHigh, BugPriorityCritical:
		return true
	}
	return false
}

type BugStatus string

const (
	BugStatusNew        BugStatus = "new"
	BugStatusInProgress BugStatus = "in_progress"
	BugStatusFixed      BugStatus = "fixed"
	BugStatusClosed     BugStatus = "closed"
)

func (s BugStatus) IsValid() bool {
	switch s {
	case BugStatusNew, BugStatusInProgress, BugStatusFixed, BugStatusClosed:
		return true
	}
	return false
}

type BugType string

const (
	BugTypeUI            BugType = "ui"
	BugTypeFunctionality BugType = "functionality"
	BugTypePerformance   BugType = "performance"
	BugTypeCrash         BugType = "crash"
	BugTypeSecurity      BugType = "security"
	BugTypeOther         BugType = "other"
)

func (t BugType) IsValid() bool {
	switch t {
	case BugTypeUI, BugTypeFunctionality, BugTypePerformance, BugTypeCrash, BugTypeSecurity, BugTypeOther:
		return true
	}
	return false
}

// Bug is a defect report owned by a tester. FixedAt is non-nil exactly
// when Status is fixed.
type Bug struct {
	ID          uint64      `gorm:"primarykey" json:"id"`
	Title       string      `gorm:"type:varchar(255);not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	TesterID    uint64      `gorm:"not null;index" json:"testerId"`
	Priority    BugPriority `gorm:"type:varchar(20);not null;default:'medium';index" json:"priority"`
	Status      BugStatus   `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	Type        BugType     `gorm:"type:varchar(20);not null;default:'functionality'" json:"type"`
	CreatedAt   time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	FixedAt     *time.Time  `json:"fixedAt"`

	// Relations
	Tester      *Tester      `gorm:"foreignKey:TesterID" json:"tester,omitempty"`
	Comments    []Comment    `gorm:"foreignKey:BugID" json:"-"`
	Screenshots []Screenshot `gorm:"foreignKey:BugID" json:"-"`
}

// ApplyStatus sets the status and keeps FixedAt in step with it.
func (b *Bug) ApplyStatus(status BugStatus, now time.Time) {
	if status == BugStatusFixed {
		if b.Status != BugStatusFixed || b.FixedAt == nil {
			b.FixedAt = &now
		}
	} else {
		b.FixedAt = nil
	}
	b.Status = status
}
