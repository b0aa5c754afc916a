package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/models"
)

// ErrScreenshotLimitReached is returned when a bug already holds the maximum
// number of screenshots.
var ErrScreenshotLimitReached = errors.New("screenshot repository: limit reached")

// TesterRepository defines the interface for tester data access
type TesterRepository interface {
	// Create creates a new tester
	Create(tester *models.Tester) error

	// FindByID finds a tester by ID
	FindByID(id uint64) (*models.Tester, error)

	// FindByEmail finds a tester by email
	FindByEmail(email string) (*models.Tester, error)

	// List retrieves testers with filtering and pagination
	List(filter TesterFilter) ([]models.Tester, int64, error)

	// ListAll retrieves every tester ordered by ID
	ListAll() ([]models.Tester, error)

	// Update saves all tester fields
	Update(tester *models.Tester) error

	// UpdateRating overwrites the derived rating columns
	UpdateRating(id uint64, rating, bugsCount int) error

	// TouchActivity sets the last activity date
	TouchActivity(id uint64, at time.Time) error

	// Delete removes a tester with its bugs, comments, screenshots and
	// activity, returning the file paths of removed screenshots
	Delete(id uint64) ([]string, error)

	// TopTesters returns testers with a positive rating in ranking order
	TopTesters(limit int) ([]models.Tester, error)
}

// TesterFilter holds filtering options for listing testers
type TesterFilter struct {
	Status   *models.TesterStatus
	Search   string
	SortBy   string
	Page     int
	PageSize int
}

// BugRepository defines the interface for bug data access
type BugRepository interface {
	// Create creates a new bug
	Create(bug *models.Bug) error

	// FindByID finds a bug by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Bug, error)

	// List retrieves bugs with filtering and pagination
	List(filter BugFilter) ([]models.Bug, int64, error)

	// ListByTester retrieves all bugs of a tester, newest first
	ListByTester(testerID uint64) ([]models.Bug, error)

	// Update saves all bug fields
	Update(bug *models.Bug) error

	// Delete removes a bug with its comments and screenshots, returning the
	// file paths of removed screenshots
	Delete(id uint64) ([]string, error)

	// CountByPriority groups a tester's bugs by priority
	CountByPriority(testerID uint64) (map[models.BugPriority]int, error)
}

// BugFilter holds filtering options for listing bugs
type BugFilter struct {
	TesterID *uint64
	Status   *models.BugStatus
	Priority *models.BugPriority
	Type     *models.BugType
	Search   string
	Page     int
	PageSize int
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// CreateAndTouchBug inserts the comment and bumps the parent bug's
	// updated_at in one transaction
	CreateAndTouchBug(comment *models.Comment, touchedAt time.Time) error

	// FindByID finds a comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// ListByBug lists comments of a bug, oldest first
	ListByBug(bugID uint64) ([]models.Comment, error)

	// Update saves the comment
	Update(comment *models.Comment) error

	// Delete removes the comment
	Delete(id uint64) error
}

// ScreenshotRepository defines the interface for screenshot data access
type ScreenshotRepository interface {
	// CreateWithinLimit inserts the screenshot unless the bug already holds
	// limit screenshots, in which case ErrScreenshotLimitReached is returned
	CreateWithinLimit(screenshot *models.Screenshot, limit int) error

	// FindByID finds a screenshot by ID
	FindByID(id uint64) (*models.Screenshot, error)

	// ListByBug lists screenshots of a bug, oldest first
	ListByBug(bugID uint64) ([]models.Screenshot, error)

	// Stats returns the number and total size of a bug's screenshots
	Stats(bugID uint64) (count int64, totalSize int64, err error)

	// Delete removes the screenshot row
	Delete(id uint64) error
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a new notification
	Create(notification *models.Notification) error

	// FindByID finds a notification by ID
	FindByID(id uint64) (*models.Notification, error)

	// List retrieves a page of notifications, newest first
	List(filter NotificationFilter) ([]models.Notification, int64, error)

	// CountUnread counts unread notifications
	CountUnread() (int64, error)

	// MarkAsRead flags a notification read. Returns nil when it does not exist
	MarkAsRead(id uint64) (*models.Notification, error)

	// MarkAllAsRead flags every unread notification read
	MarkAllAsRead() (int64, error)

	// Delete removes a notification. Returns false when it does not exist
	Delete(id uint64) (bool, error)
}

// NotificationFilter holds paging options for listing notifications
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// ActivityRepository defines the interface for activity history access
type ActivityRepository interface {
	// Create appends an activity row
	Create(activity *models.ActivityHistory) error

	// ListByTester lists a tester's activity newest first
	ListByTester(testerID uint64, eventType *models.ActivityEventType, limit int) ([]models.ActivityHistory, error)
}

// AdminRepository defines the interface for admin data access
type AdminRepository interface {
	// Create creates a new admin
	Create(admin *models.Admin) error

	// FindByID finds an admin by ID
	FindByID(id uint64) (*models.Admin, error)

	// FindByUsername finds an admin by username
	FindByUsername(username string) (*models.Admin, error)

	// Count counts admins
	Count() (int64, error)

	// UpdateLastLogin records a successful login
	UpdateLastLogin(id uint64, at time.Time) error
}
