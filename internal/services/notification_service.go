package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/qa-tracker-api/internal/cache"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
)

// NotificationService creates system notifications and serves the admin inbox
type NotificationService struct {
	repo  repository.NotificationRepository
	cache *cache.Cache
}

func NewNotificationService(repo repository.NotificationRepository, c *cache.Cache) *NotificationService {
	return &NotificationService{repo: repo, cache: c}
}

// CreateNotificationInput represents input for creating a notification
type CreateNotificationInput struct {
	Type     models.NotificationType
	Title    string
	Message  string
	Metadata map[string]interface{}
}

func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	var errs fieldErrors
	if !input.Type.IsValid() {
		errs.add("type", "must be one of: new_tester, critical_bug, server_down, info")
	}
	errs.requireText("title", input.Title, constants.MaxTitleLength)
	if err := errs.err(); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		Type:     input.Type,
		Title:    input.Title,
		Message:  input.Message,
		IsRead:   false,
		Metadata: toJSON(input.Metadata),
	}
	if err := s.repo.Create(notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.invalidateUnread(ctx)
	return notification, nil
}

func (s *NotificationService) NotifyNewTester(ctx context.Context, tester *models.Tester) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationInput{
		Type:    models.NotificationNewTester,
		Title:   "Новый тестировщик",
		Message: fmt.Sprintf("Зарегистрирован новый тестировщик: %s (%s)", tester.Name, tester.Email),
		Metadata: map[string]interface{}{
			"testerId":   tester.ID,
			"testerName": tester.Name,
			"email":      tester.Email,
		},
	})
}

// NotifyCriticalBug does nothing unless the bug is critical.
func (s *NotificationService) NotifyCriticalBug(ctx context.Context, bug *models.Bug, testerName string) (*models.Notification, error) {
	if bug.Priority != models.BugPriorityCritical {
		return nil, nil
	}
	return s.Create(ctx, CreateNotificationInput{
		Type:    models.NotificationCriticalBug,
		Title:   "Критический баг",
		Message: fmt.Sprintf("Критический баг \"%s\" от %s", bug.Title, testerName),
		Metadata: map[string]interface{}{
			"bugId":    bug.ID,
			"bugTitle": bug.Title,
			"testerId": bug.TesterID,
		},
	})
}

func (s *NotificationService) NotifyServerDown(ctx context.Context, service, reason string) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationInput{
		Type:    models.NotificationServerDown,
		Title:   fmt.Sprintf("Сервис недоступен: %s", service),
		Message: reason,
		Metadata: map[string]interface{}{
			"service": service,
		},
	})
}

// FindNotificationsInput holds paging options for the inbox
type FindNotificationsInput struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationPage is one page of the inbox
type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unreadCount"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
}

// FindAll lists notifications newest first. The unread count reuses the
// page total when only unread rows were requested.
func (s *NotificationService) FindAll(ctx context.Context, input FindNotificationsInput) (*NotificationPage, error) {
	switch {
	case input.Limit <= 0:
		input.Limit = constants.DefaultNotificationLimit
	case input.Limit > constants.MaxNotificationLimit:
		input.Limit = constants.MaxNotificationLimit
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	notifications, total, err := s.repo.List(repository.NotificationFilter{
		UnreadOnly: input.UnreadOnly,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread := total
	if !input.UnreadOnly {
		unread, err = s.UnreadCount(ctx)
		if err != nil {
			return nil, err
		}
	}

	return &NotificationPage{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
		Limit:         input.Limit,
		Offset:        input.Offset,
	}, nil
}

func (s *NotificationService) GetByID(id uint64) (*models.Notification, error) {
	notification, err := s.repo.FindByID(id)
	if err != nil {
		return nil, storeError(err, "notification", id, "find notification")
	}
	return notification, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id uint64) (*models.Notification, error) {
	notification, err := s.repo.MarkAsRead(id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	if notification == nil {
		return nil, apierrors.NewNotFoundError("notification", id)
	}
	s.invalidateUnread(ctx)
	return notification, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context) (int64, error) {
	updated, err := s.repo.MarkAllAsRead()
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.invalidateUnread(ctx)
	return updated, nil
}

func (s *NotificationService) Delete(ctx context.Context, id uint64) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if !deleted {
		return apierrors.NewNotFoundError("notification", id)
	}
	s.invalidateUnread(ctx)
	return nil
}

// UnreadCount is served from cache when Redis is enabled.
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	key := s.cache.Key("notifications", "unread")

	var count int64
	hit, err := s.cache.GetJSON(ctx, key, &count)
	if err != nil {
		logger.Warning("unread count cache read: %v", err)
	}
	if hit {
		return count, nil
	}

	count, err = s.repo.CountUnread()
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	if err := s.cache.SetJSON(ctx, key, count); err != nil {
		logger.Warning("unread count cache write: %v", err)
	}
	return count, nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context) {
	if err := s.cache.Delete(ctx, s.cache.Key("notifications", "unread")); err != nil {
		logger.Warning("unread count cache invalidate: %v", err)
	}
}
