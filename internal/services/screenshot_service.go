package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
	"github.com/yukikurage/qa-tracker-api/internal/storage"
	"gorm.io/gorm"
)

const sniffLen = 512

// ScreenshotService handles screenshot uploads for bugs
type ScreenshotService struct {
	repo    repository.ScreenshotRepository
	bugRepo repository.BugRepository
	files   storage.FileStorage
	now     func() time.Time
}

func NewScreenshotService(repo repository.ScreenshotRepository, bugRepo repository.BugRepository, files storage.FileStorage) *ScreenshotService {
	return &ScreenshotService{
		repo:    repo,
		bugRepo: bugRepo,
		files:   files,
		now:     time.Now,
	}
}

// UploadInput is one uploaded file.
type UploadInput struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ScreenshotStats summarizes a bug's screenshots
type ScreenshotStats struct {
	Count     int64 `json:"count"`
	TotalSize int64 `json:"totalSize"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
}

func invalidFile(message string) error {
	return apierrors.NewValidationError(apierrors.FieldError{Field: "screenshot", Message: message})
}

// Upload validates and stores a screenshot. The file is written before the
// row; if the row cannot be inserted the file is removed again.
func (s *ScreenshotService) Upload(ctx context.Context, bugID uint64, input UploadInput) (*models.Screenshot, error) {
	ext := filepath.Ext(input.Filename)
	mimeType, ok := storage.MimeTypeForExt(ext)
	switch {
	case !ok:
		return nil, invalidFile("only png, jpeg, jpg and gif files are allowed")
	case input.Size <= 0:
		return nil, invalidFile("file is empty")
	case input.Size > constants.MaxScreenshotSize:
		return nil, invalidFile(fmt.Sprintf("file must be at most %d MB", constants.MaxScreenshotSize>>20))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(input.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if !storage.SniffMatches(head, ext) {
		return nil, invalidFile("file content does not match its extension")
	}

	if _, err := ensureBug(s.bugRepo, bugID); err != nil {
		return nil, err
	}

	count, _, err := s.repo.Stats(bugID)
	if err != nil {
		return nil, fmt.Errorf("failed to count screenshots: %w", err)
	}
	if count >= int64(constants.MaxScreenshotsPerBug) {
		return nil, limitExceeded()
	}

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), input.Content), constants.MaxScreenshotSize)
	path, err := s.files.Save(ctx, body, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to store screenshot: %w", err)
	}

	screenshot := &models.Screenshot{
		BugID:      bugID,
		Filename:   filepath.Base(input.Filename),
		FilePath:   path,
		FileSize:   input.Size,
		MimeType:   mimeType,
		UploadedAt: s.now(),
	}

	if err := s.repo.CreateWithinLimit(screenshot, constants.MaxScreenshotsPerBug); err != nil {
		if rmErr := s.files.Remove(ctx, path); rmErr != nil {
			logger.Warning("failed to remove orphaned screenshot %s: %v", path, rmErr)
		}
		if errors.Is(err, repository.ErrScreenshotLimitReached) {
			return nil, limitExceeded()
		}
		return nil, storeError(err, "bug", bugID, "save screenshot")
	}

	return screenshot, nil
}

func limitExceeded() error {
	return apierrors.NewLimitExceededError(
		fmt.Sprintf("A bug can have at most %d screenshots", constants.MaxScreenshotsPerBug))
}

func (s *ScreenshotService) List(bugID uint64) ([]models.Screenshot, error) {
	if _, err := ensureBug(s.bugRepo, bugID); err != nil {
		return nil, err
	}
	screenshots, err := s.repo.ListByBug(bugID)
	if err != nil {
		return nil, fmt.Errorf("failed to list screenshots: %w", err)
	}
	return screenshots, nil
}

func (s *ScreenshotService) Get(bugID, screenshotID uint64) (*models.Screenshot, error) {
	screenshot, err := s.repo.FindByID(screenshotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NewNotFoundError("screenshot", screenshotID)
		}
		return nil, fmt.Errorf("failed to find screenshot: %w", err)
	}
	if screenshot.BugID != bugID {
		return nil, apierrors.NewNotFoundError("screenshot", screenshotID)
	}
	return screenshot, nil
}

// Delete removes the row, then the backing file.
func (s *ScreenshotService) Delete(ctx context.Context, bugID, screenshotID uint64) error {
	screenshot, err := s.Get(bugID, screenshotID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(screenshotID); err != nil {
		return storeError(err, "screenshot", screenshotID, "delete screenshot")
	}
	removeFiles(ctx, s.files, []string{screenshot.FilePath})
	return nil
}

func (s *ScreenshotService) Statistics(bugID uint64) (*ScreenshotStats, error) {
	if _, err := ensureBug(s.bugRepo, bugID); err != nil {
		return nil, err
	}
	count, total, err := s.repo.Stats(bugID)
	if err != nil {
		return nil, fmt.Errorf("failed to load screenshot statistics: %w", err)
	}

	remaining := constants.MaxScreenshotsPerBug - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &ScreenshotStats{
		Count:     count,
		TotalSize: total,
		Limit:     constants.MaxScreenshotsPerBug,
		Remaining: remaining,
	}, nil
}

// URL resolves the public location of a stored screenshot.
func (s *ScreenshotService) URL(screenshot *models.Screenshot) string {
	return s.files.URL(screenshot.FilePath)
}
