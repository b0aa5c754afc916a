package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
	"gorm.io/gorm"
)

const registrationDescription = "Тестировщик зарегистрирован в системе"

// ActivityService appends and reads tester activity history
type ActivityService struct {
	activityRepo repository.ActivityRepository
	testerRepo   repository.TesterRepository
	now          func() time.Time
}

func NewActivityService(activityRepo repository.ActivityRepository, testerRepo repository.TesterRepository) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		testerRepo:   testerRepo,
		now:          time.Now,
	}
}

// RecordActivityInput describes one history row
type RecordActivityInput struct {
	TesterID    uint64
	EventType   models.ActivityEventType
	Description string
	Metadata    map[string]interface{}
}

// RecordActivity validates and appends one activity row.
func (s *ActivityService) RecordActivity(input RecordActivityInput) (*models.ActivityHistory, error) {
	var errs fieldErrors
	if input.TesterID == 0 {
		errs.add("testerId", "is required")
	}
	if !input.EventType.IsValid() {
		errs.add("eventType", "must be one of: registration, bug_found, status_changed, rating_updated")
	}
	if strings.TrimSpace(input.Description) == "" {
		errs.add("description", "is required")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if _, err := s.testerRepo.FindByID(input.TesterID); err != nil {
		return nil, storeError(err, "tester", input.TesterID, "find tester")
	}

	activity := &models.ActivityHistory{
		TesterID:    input.TesterID,
		EventType:   input.EventType,
		Description: input.Description,
		Metadata:    toJSON(input.Metadata),
		CreatedAt:   s.now(),
	}
	if err := s.activityRepo.Create(activity); err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return activity, nil
}

func (s *ActivityService) RecordRegistration(tester *models.Tester) (*models.ActivityHistory, error) {
	return s.RecordActivity(RecordActivityInput{
		TesterID:    tester.ID,
		EventType:   models.EventRegistration,
		Description: registrationDescription,
		Metadata: map[string]interface{}{
			"deviceType": tester.DeviceType,
			"os":         tester.OS,
			"osVersion":  tester.OSVersion,
			"timestamp":  s.now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *ActivityService) RecordBugFound(bug *models.Bug) (*models.ActivityHistory, error) {
	return s.RecordActivity(RecordActivityInput{
		TesterID:    bug.TesterID,
		EventType:   models.EventBugFound,
		Description: fmt.Sprintf("Найден баг: %s", bug.Title),
		Metadata: map[string]interface{}{
			"bugId":    bug.ID,
			"bugTitle": bug.Title,
			"priority": bug.Priority,
		},
	})
}

func (s *ActivityService) RecordStatusChange(testerID uint64, oldStatus, newStatus models.TesterStatus) (*models.ActivityHistory, error) {
	return s.RecordActivity(RecordActivityInput{
		TesterID:    testerID,
		EventType:   models.EventStatusChanged,
		Description: fmt.Sprintf("Статус изменён: %s → %s", oldStatus, newStatus),
		Metadata: map[string]interface{}{
			"oldStatus": oldStatus,
			"newStatus": newStatus,
		},
	})
}

// RatingChange describes what triggered a rating recompute.
type RatingChange struct {
	Reason      string
	BugID       uint64
	OldPriority models.BugPriority
	NewPriority models.BugPriority
	OldRating   int
	NewRating   int
}

func (s *ActivityService) RecordRatingUpdate(testerID uint64, change RatingChange) (*models.ActivityHistory, error) {
	metadata := map[string]interface{}{
		"reason":    change.Reason,
		"bugId":     change.BugID,
		"oldRating": change.OldRating,
		"newRating": change.NewRating,
	}
	if change.OldPriority != "" {
		metadata["oldPriority"] = change.OldPriority
	}
	if change.NewPriority != "" {
		metadata["newPriority"] = change.NewPriority
	}

	description := fmt.Sprintf("Рейтинг обновлён: %d → %d", change.OldRating, change.NewRating)
	if change.OldPriority != "" && change.NewPriority != "" {
		description = fmt.Sprintf("Рейтинг обновлён: %d → %d (приоритет %s → %s)",
			change.OldRating, change.NewRating, change.OldPriority, change.NewPriority)
	}

	return s.RecordActivity(RecordActivityInput{
		TesterID:    testerID,
		EventType:   models.EventRatingUpdated,
		Description: description,
		Metadata:    metadata,
	})
}

// GetTesterActivity lists a tester's history newest first. eventType, when
// set, must be one of the user-facing kinds.
func (s *ActivityService) GetTesterActivity(testerID uint64, eventType string, limit int) ([]models.ActivityHistory, error) {
	var filter *models.ActivityEventType
	if eventType != "" {
		et := models.ActivityEventType(eventType)
		if !et.IsUserFacing() {
			return nil, apierrors.NewValidationError(apierrors.FieldError{
				Field:   "eventType",
				Message: "must be one of: registration, bug_found, status_changed",
			})
		}
		filter = &et
	}

	switch {
	case limit <= 0:
		limit = constants.DefaultActivityLimit
	case limit > constants.MaxActivityLimit:
		limit = constants.MaxActivityLimit
	}

	if _, err := s.testerRepo.FindByID(testerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NewNotFoundError("tester", testerID)
		}
		return nil, fmt.Errorf("failed to find tester: %w", err)
	}

	activities, err := s.activityRepo.ListByTester(testerID, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return activities, nil
}
