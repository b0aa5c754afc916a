package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/constants"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
	"github.com/yukikurage/qa-tracker-api/internal/storage"
)

// BugService handles bug business logic and keeps tester ratings current
type BugService struct {
	bugRepo       repository.BugRepository
	testerRepo    repository.TesterRepository
	rating        *RatingService
	activity      *ActivityService
	notifications *NotificationService
	files         storage.FileStorage
	effects       Effects
	now           func() time.Time
}

// NewBugService creates a new BugService
func NewBugService(
	bugRepo repository.BugRepository,
	testerRepo repository.TesterRepository,
	rating *RatingService,
	activity *ActivityService,
	notifications *NotificationService,
	files storage.FileStorage,
	effects Effects,
) *BugService {
	return &BugService{
		bugRepo:       bugRepo,
		testerRepo:    testerRepo,
		rating:        rating,
		activity:      activity,
		notifications: notifications,
		files:         files,
		effects:       effects,
		now:           time.Now,
	}
}

// CreateBugInput represents input for creating a bug
type CreateBugInput struct {
	Title       string
	Description string
	TesterID    uint64
	Priority    string
	Status      string
	Type        string
}

// UpdateBugInput represents a partial bug update
type UpdateBugInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	Type        *string
}

// ListBugsInput represents filters for listing bugs
type ListBugsInput struct {
	TesterID *uint64
	Status   string
	Priority string
	Type     string
	Search   string
	Page     int
	PageSize int
}

func validatePriority(errs *fieldErrors, value string) {
	if !models.BugPriority(value).IsValid() {
		errs.add("priority", "must be one of: low, medium, high, critical")
	}
}

func validateStatus(errs *fieldErrors, value string) {
	if !models.BugStatus(value).IsValid() {
		errs.add("status", "must be one of: new, in_progress, fixed, closed")
	}
}

func validateType(errs *fieldErrors, value string) {
	if !models.BugType(value).IsValid() {
		errs.add("type", "must be one of: ui, functionality, performance, crash, security, other")
	}
}

func validateDescription(errs *fieldErrors, value string) {
	if len(value) > constants.MaxDescriptionBytes {
		errs.add("description", fmt.Sprintf("must be at most %d bytes", constants.MaxDescriptionBytes))
	}
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// CreateBug stores the bug, then recomputes the owner's rating and fires the
// activity and notification side effects.
func (s *BugService) CreateBug(ctx context.Context, input CreateBugInput) (*models.Bug, error) {
	input.Priority = defaultString(input.Priority, string(models.BugPriorityMedium))
	input.Status = defaultString(input.Status, string(models.BugStatusNew))
	input.Type = defaultString(input.Type, string(models.BugTypeFunctionality))

	var errs fieldErrors
	errs.requireText("title", input.Title, constants.MaxTitleLength)
	validateDescription(&errs, input.Description)
	if input.TesterID == 0 {
		errs.add("testerId", "is required")
	}
	validatePriority(&errs, input.Priority)
	validateStatus(&errs, input.Status)
	validateType(&errs, input.Type)
	if err := errs.err(); err != nil {
		return nil, err
	}

	tester, err := s.testerRepo.FindByID(input.TesterID)
	if err != nil {
		return nil, storeError(err, "tester", input.TesterID, "find tester")
	}

	now := s.now()
	bug := &models.Bug{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		TesterID:    tester.ID,
		Priority:    models.BugPriority(input.Priority),
		Type:        models.BugType(input.Type),
	}
	bug.ApplyStatus(models.BugStatus(input.Status), now)

	if err := s.bugRepo.Create(bug); err != nil {
		return nil, fmt.Errorf("failed to create bug: %w", err)
	}

	if err := s.testerRepo.TouchActivity(tester.ID, now); err != nil {
		logger.Warning("failed to bump last activity of tester %d: %v", tester.ID, err)
	}

	s.refreshRating(ctx, tester.ID, RatingChange{
		Reason:      "bug_created",
		BugID:       bug.ID,
		NewPriority: bug.Priority,
		OldRating:   tester.Rating,
	})

	created := *bug
	s.effects.Go("record bug found", func(context.Context) error {
		_, err := s.activity.RecordBugFound(&created)
		return err
	})
	s.notifyIfCritical(&created, tester.Name)

	bug.Tester = tester
	return bug, nil
}

// refreshRating recomputes the tester rating synchronously. Failures are
// logged only.
func (s *BugService) refreshRating(ctx context.Context, testerID uint64, change RatingChange) {
	tester, err := s.rating.UpdateTesterRating(ctx, testerID)
	if err != nil {
		logger.Warning("failed to update rating of tester %d: %v", testerID, err)
		return
	}

	change.NewRating = tester.Rating
	s.effects.Go("record rating update", func(context.Context) error {
		_, err := s.activity.RecordRatingUpdate(testerID, change)
		return err
	})
}

func (s *BugService) notifyIfCritical(bug *models.Bug, testerName string) {
	if bug.Priority != models.BugPriorityCritical {
		return
	}
	s.effects.Go("notify critical bug", func(ctx context.Context) error {
		_, err := s.notifications.NotifyCriticalBug(ctx, bug, testerName)
		return err
	})
}

func (s *BugService) GetBug(id uint64) (*models.Bug, error) {
	bug, err := s.bugRepo.FindByID(id, "Tester")
	if err != nil {
		return nil, storeError(err, "bug", id, "find bug")
	}
	return bug, nil
}

func (s *BugService) ListBugs(input ListBugsInput) ([]models.Bug, int64, error) {
	var errs fieldErrors
	filter := repository.BugFilter{
		TesterID: input.TesterID,
		Search:   input.Search,
		Page:     input.Page,
		PageSize: input.PageSize,
	}
	if input.Status != "" {
		validateStatus(&errs, input.Status)
		status := models.BugStatus(input.Status)
		filter.Status = &status
	}
	if input.Priority != "" {
		validatePriority(&errs, input.Priority)
		priority := models.BugPriority(input.Priority)
		filter.Priority = &priority
	}
	if input.Type != "" {
		validateType(&errs, input.Type)
		bugType := models.BugType(input.Type)
		filter.Type = &bugType
	}
	if err := errs.err(); err != nil {
		return nil, 0, err
	}

	bugs, total, err := s.bugRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bugs: %w", err)
	}
	return bugs, total, nil
}

// UpdateBug applies a partial update. A priority change recomputes the
// rating; a change to critical raises a notification.
func (s *BugService) UpdateBug(ctx context.Context, id uint64, input UpdateBugInput) (*models.Bug, error) {
	var errs fieldErrors
	if input.Title != nil {
		errs.requireText("title", *input.Title, constants.MaxTitleLength)
	}
	if input.Description != nil {
		validateDescription(&errs, *input.Description)
	}
	if input.Priority != nil {
		validatePriority(&errs, *input.Priority)
	}
	if input.Status != nil {
		validateStatus(&errs, *input.Status)
	}
	if input.Type != nil {
		validateType(&errs, *input.Type)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	bug, err := s.GetBug(id)
	if err != nil {
		return nil, err
	}

	oldPriority := bug.Priority
	if input.Title != nil {
		bug.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		bug.Description = *input.Description
	}
	if input.Type != nil {
		bug.Type = models.BugType(*input.Type)
	}
	if input.Priority != nil {
		bug.Priority = models.BugPriority(*input.Priority)
	}
	if input.Status != nil {
		bug.ApplyStatus(models.BugStatus(*input.Status), s.now())
	}

	if err := s.bugRepo.Update(bug); err != nil {
		return nil, fmt.Errorf("failed to update bug: %w", err)
	}

	if bug.Priority != oldPriority {
		oldRating := 0
		testerName := ""
		if bug.Tester != nil {
			oldRating = bug.Tester.Rating
			testerName = bug.Tester.Name
		}
		s.refreshRating(ctx, bug.TesterID, RatingChange{
			Reason:      "priority_changed",
			BugID:       bug.ID,
			OldPriority: oldPriority,
			NewPriority: bug.Priority,
			OldRating:   oldRating,
		})

		updated := *bug
		updated.Tester = nil
		s.notifyIfCritical(&updated, testerName)
	}

	return s.GetBug(id)
}

func (s *BugService) UpdateStatus(ctx context.Context, id uint64, status string) (*models.Bug, error) {
	return s.UpdateBug(ctx, id, UpdateBugInput{Status: &status})
}

func (s *BugService) UpdatePriority(ctx context.Context, id uint64, priority string) (*models.Bug, error) {
	return s.UpdateBug(ctx, id, UpdateBugInput{Priority: &priority})
}

// DeleteBug removes the bug with its comments and screenshots and recomputes
// the owner's rating.
func (s *BugService) DeleteBug(ctx context.Context, id uint64) error {
	bug, err := s.GetBug(id)
	if err != nil {
		return err
	}

	paths, err := s.bugRepo.Delete(id)
	if err != nil {
		return storeError(err, "bug", id, "delete bug")
	}
	removeFiles(ctx, s.files, paths)

	oldRating := 0
	if bug.Tester != nil {
		oldRating = bug.Tester.Rating
	}
	s.refreshRating(ctx, bug.TesterID, RatingChange{
		Reason:      "bug_deleted",
		BugID:       bug.ID,
		OldPriority: bug.Priority,
		OldRating:   oldRating,
	})
	return nil
}

// ensureBug returns NOT_FOUND when the bug does not exist.
func ensureBug(repo repository.BugRepository, id uint64) (*models.Bug, error) {
	bug, err := repo.FindByID(id)
	if err != nil {
		return nil, storeError(err, "bug", id, "find bug")
	}
	return bug, nil
}
