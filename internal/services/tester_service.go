package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
	"github.com/yukikurage/qa-tracker-api/internal/storage"
	"gorm.io/gorm"
)

const duplicateEmailMessage = "Tester with this email already exists"

// TesterService handles tester registration and profile management
type TesterService struct {
	testerRepo    repository.TesterRepository
	bugRepo       repository.BugRepository
	activity      *ActivityService
	notifications *NotificationService
	rating        *RatingService
	files         storage.FileStorage
	mirror        TesterMirror
	effects       Effects
	now           func() time.Time
}

// NewTesterService creates a new TesterService. mirror may be nil when the
// spreadsheet mirror is disabled.
func NewTesterService(
	testerRepo repository.TesterRepository,
	bugRepo repository.BugRepository,
	activity *ActivityService,
	notifications *NotificationService,
	rating *RatingService,
	files storage.FileStorage,
	mirror TesterMirror,
	effects Effects,
) *TesterService {
	return &TesterService{
		testerRepo:    testerRepo,
		bugRepo:       bugRepo,
		activity:      activity,
		notifications: notifications,
		rating:        rating,
		files:         files,
		mirror:        mirror,
		effects:       effects,
		now:           time.Now,
	}
}

// RegisterTesterInput represents input for registering a tester
type RegisterTesterInput struct {
	Name       string
	Email      string
	Nickname   *string
	Telegram   *string
	DeviceType string
	OS         string
	OSVersion  *string
}

// UpdateTesterInput represents a partial profile update
type UpdateTesterInput struct {
	Name       *string
	Email      *string
	Nickname   *string
	Telegram   *string
	DeviceType *string
	OS         *string
	OSVersion  *string
}

// ListTestersInput represents filters for listing testers
type ListTestersInput struct {
	Status   string
	Search   string
	SortBy   string
	Page     int
	PageSize int
}

func validateRegistration(input RegisterTesterInput) error {
	var errs fieldErrors
	errs.requireText("name", input.Name, constants.MaxTitleLength)
	if !isEmail(strings.TrimSpace(input.Email)) {
		errs.add("email", "must be a valid email address")
	}
	errs.requireText("deviceType", input.DeviceType, 100)
	errs.requireText("os", input.OS, 100)
	errs.optionalText("nickname", input.Nickname, 100)
	errs.optionalText("telegram", input.Telegram, 100)
	errs.optionalText("osVersion", input.OSVersion, 50)
	return errs.err()
}

// Register creates a tester and fires the registration side effects.
func (s *TesterService) Register(ctx context.Context, input RegisterTesterInput) (*models.Tester, error) {
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	if err := s.ensureEmailFree(email, 0); err != nil {
		return nil, err
	}

	tester := &models.Tester{
		Name:             strings.TrimSpace(input.Name),
		Email:            email,
		Nickname:         trimmedOrNil(input.Nickname),
		Telegram:         trimmedOrNil(input.Telegram),
		DeviceType:       strings.TrimSpace(input.DeviceType),
		OS:               strings.TrimSpace(input.OS),
		OSVersion:        trimmedOrNil(input.OSVersion),
		Status:           models.TesterStatusActive,
		RegistrationDate: s.now(),
	}

	if err := s.testerRepo.Create(tester); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierrors.NewConflictError("email", duplicateEmailMessage)
		}
		return nil, fmt.Errorf("failed to create tester: %w", err)
	}

	registered := *tester
	s.effects.Go("record registration", func(context.Context) error {
		_, err := s.activity.RecordRegistration(&registered)
		return err
	})
	s.effects.Go("notify new tester", func(ctx context.Context) error {
		_, err := s.notifications.NotifyNewTester(ctx, &registered)
		return err
	})
	s.syncTesters("register", registered)

	return tester, nil
}

func (s *TesterService) ensureEmailFree(email string, selfID uint64) error {
	existing, err := s.testerRepo.FindByEmail(email)
	if err == nil {
		if existing.ID != selfID {
			return apierrors.NewConflictError("email", duplicateEmailMessage)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *TesterService) ListTesters(input ListTestersInput) ([]models.Tester, int64, error) {
	filter := repository.TesterFilter{
		Search:   input.Search,
		SortBy:   input.SortBy,
		Page:     input.Page,
		PageSize: input.PageSize,
	}

	if input.Status != "" {
		status := models.TesterStatus(input.Status)
		if !status.IsValid() {
			return nil, 0, apierrors.NewValidationError(apierrors.FieldError{
				Field:   "status",
				Message: "must be one of: active, inactive, suspended",
			})
		}
		filter.Status = &status
	}

	testers, total, err := s.testerRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list testers: %w", err)
	}
	return testers, total, nil
}

func (s *TesterService) GetTester(id uint64) (*models.Tester, error) {
	tester, err := s.testerRepo.FindByID(id)
	if err != nil {
		return nil, storeError(err, "tester", id, "find tester")
	}
	return tester, nil
}

// UpdateTester applies a partial profile update. Status has its own operation.
func (s *TesterService) UpdateTester(ctx context.Context, id uint64, input UpdateTesterInput) (*models.Tester, error) {
	var errs fieldErrors
	if input.Name != nil {
		errs.requireText("name", *input.Name, constants.MaxTitleLength)
	}
	if input.Email != nil && !isEmail(strings.TrimSpace(*input.Email)) {
		errs.add("email", "must be a valid email address")
	}
	if input.DeviceType != nil {
		errs.requireText("deviceType", *input.DeviceType, 100)
	}
	if input.OS != nil {
		errs.requireText("os", *input.OS, 100)
	}
	errs.optionalText("nickname", input.Nickname, 100)
	errs.optionalText("telegram", input.Telegram, 100)
	errs.optionalText("osVersion", input.OSVersion, 50)
	if err := errs.err(); err != nil {
		return nil, err
	}

	tester, err := s.GetTester(id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email != tester.Email {
			if err := s.ensureEmailFree(email, tester.ID); err != nil {
				return nil, err
			}
			tester.Email = email
		}
	}
	if input.Name != nil {
		tester.Name = strings.TrimSpace(*input.Name)
	}
	if input.Nickname != nil {
		tester.Nickname = trimmedOrNil(input.Nickname)
	}
	if input.Telegram != nil {
		tester.Telegram = trimmedOrNil(input.Telegram)
	}
	if input.DeviceType != nil {
		tester.DeviceType = strings.TrimSpace(*input.DeviceType)
	}
	if input.OS != nil {
		tester.OS = strings.TrimSpace(*input.OS)
	}
	if input.OSVersion != nil {
		tester.OSVersion = trimmedOrNil(input.OSVersion)
	}

	if err := s.testerRepo.Update(tester); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierrors.NewConflictError("email", duplicateEmailMessage)
		}
		return nil, fmt.Errorf("failed to update tester: %w", err)
	}

	s.rating.InvalidateTop(ctx)
	s.syncTesters("update", *tester)
	return tester, nil
}

// UpdateStatus changes the tester status and records the transition.
func (s *TesterService) UpdateStatus(ctx context.Context, id uint64, status string) (*models.Tester, error) {
	newStatus := models.TesterStatus(status)
	if !newStatus.IsValid() {
		return nil, apierrors.NewValidationError(apierrors.FieldError{
			Field:   "status",
			Message: "must be one of: active, inactive, suspended",
		})
	}

	tester, err := s.GetTester(id)
	if err != nil {
		return nil, err
	}

	oldStatus := tester.Status
	if oldStatus == newStatus {
		return tester, nil
	}

	tester.Status = newStatus
	if err := s.testerRepo.Update(tester); err != nil {
		return nil, fmt.Errorf("failed to update tester status: %w", err)
	}

	s.effects.Go("record status change", func(context.Context) error {
		_, err := s.activity.RecordStatusChange(id, oldStatus, newStatus)
		return err
	})
	s.rating.InvalidateTop(ctx)
	s.syncTesters("status", *tester)
	return tester, nil
}

// DeleteTester removes the tester with everything it owns. Screenshot files
// are removed after the rows are gone.
func (s *TesterService) DeleteTester(ctx context.Context, id uint64) error {
	paths, err := s.testerRepo.Delete(id)
	if err != nil {
		return storeError(err, "tester", id, "delete tester")
	}

	removeFiles(ctx, s.files, paths)
	s.rating.InvalidateTop(ctx)
	return nil
}

// ListTesterBugs returns every bug of an existing tester, newest first.
func (s *TesterService) ListTesterBugs(id uint64) ([]models.Bug, error) {
	if _, err := s.GetTester(id); err != nil {
		return nil, err
	}
	bugs, err := s.bugRepo.ListByTester(id)
	if err != nil {
		return nil, fmt.Errorf("failed to list bugs: %w", err)
	}
	return bugs, nil
}

// ResyncAll queues every tester for the spreadsheet mirror.
func (s *TesterService) ResyncAll() (int, error) {
	if s.mirror == nil {
		return 0, apierrors.NewServiceUnavailableError("Spreadsheet sync is not configured")
	}

	testers, err := s.testerRepo.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list testers: %w", err)
	}
	s.mirror.SyncTesters("resync", testers...)
	return len(testers), nil
}

func (s *TesterService) syncTesters(label string, testers ...models.Tester) {
	if s.mirror == nil {
		return
	}
	s.mirror.SyncTesters(label, testers...)
}

func removeFiles(ctx context.Context, files storage.FileStorage, paths []string) {
	if files == nil {
		return
	}
	for _, p := range paths {
		if err := files.Remove(ctx, p); err != nil {
			logger.Warning("failed to remove screenshot file %s: %v", p, err)
		}
	}
}
