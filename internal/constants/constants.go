package constants

import "time"

// Session / context keys
const (
	SessionCookieName  = "qa_tracker_session"
	ContextKeyAdminID  = "admin_id"
	ContextKeyUsername = "admin_username"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
)

// Rating weights per bug priority
const (
	WeightCritical = 4
	WeightHigh     = 3
	WeightMedium   = 2
	WeightLow      = 1

	DefaultTopTestersLimit = 10
	MaxTopTestersLimit     = 100
)

// Comments
const (
	CommentEditWindow   = 15 * time.Minute
	MaxCommentLength    = 5000
	MaxTitleLength      = 255
	MaxDescriptionBytes = 10000
)

// Screenshots
const (
	MaxScreenshotsPerBug = 10
	MaxScreenshotSize    = 5 * 1024 * 1024
)

// Notifications
const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 200
)

// Activity
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

// Spreadsheet sync retry policy
const (
	SheetSyncMaxAttempts = 3
	SheetSyncBaseDelay   = 60 * time.Second
	SheetSyncMaxDelay    = 300 * time.Second
)

// Cache
const (
	CacheTTL = 60 * time.Second
)

// Login rate limit per client IP
const (
	LoginRateLimitRPS   = 0.5
	LoginRateLimitBurst = 5
)
