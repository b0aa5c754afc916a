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

// Author identifies the admin writing a comment.
type Author struct {
	ID   uint64
	Name string
}

// CommentService handles bug comments and their edit window
type CommentService struct {
	commentRepo repository.CommentRepository
	bugRepo     repository.BugRepository
	now         func() time.Time
}

func NewCommentService(commentRepo repository.CommentRepository, bugRepo repository.BugRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		bugRepo:     bugRepo,
		now:         time.Now,
	}
}

// CanEdit reports whether the comment is still inside its edit window at now.
func CanEdit(comment *models.Comment, now time.Time) bool {
	return now.Sub(comment.CreatedAt) <= constants.CommentEditWindow
}

func validateContent(content string) error {
	var errs fieldErrors
	errs.requireText("content", content, constants.MaxCommentLength)
	return errs.err()
}

// Create stores the comment and bumps the bug's updated_at atomically.
func (s *CommentService) Create(bugID uint64, author Author, content string) (*models.Comment, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.Comment{
		BugID:      bugID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Content:    strings.TrimSpace(content),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.commentRepo.CreateAndTouchBug(comment, now); err != nil {
		return nil, storeError(err, "bug", bugID, "create comment")
	}
	return comment, nil
}

func (s *CommentService) List(bugID uint64) ([]models.Comment, error) {
	if _, err := ensureBug(s.bugRepo, bugID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByBug(bugID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) find(bugID, commentID uint64) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NewNotFoundError("comment", commentID)
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if comment.BugID != bugID {
		return nil, apierrors.NewNotFoundError("comment", commentID)
	}
	return comment, nil
}

// Update edits the content. Only the author may edit, and only inside the
// edit window, which is recomputed on every call.
func (s *CommentService) Update(bugID, commentID, authorID uint64, content string) (*models.Comment, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	comment, err := s.find(bugID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != authorID {
		return nil, apierrors.NewAuthorizationError("Only the author can edit this comment")
	}

	now := s.now()
	if !CanEdit(comment, now) {
		return nil, apierrors.NewEditWindowExpiredError(
			fmt.Sprintf("Comments can only be edited within %d minutes of creation", int(constants.CommentEditWindow.Minutes())))
	}

	comment.Content = strings.TrimSpace(content)
	comment.IsEdited = true
	comment.UpdatedAt = now
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return comment, nil
}

// Delete removes the comment. Only the author may delete; there is no time limit.
func (s *CommentService) Delete(bugID, commentID, authorID uint64) error {
	comment, err := s.find(bugID, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != authorID {
		return apierrors.NewAuthorizationError("Only the author can delete this comment")
	}
	if err := s.commentRepo.Delete(commentID); err != nil {
		return storeError(err, "comment", commentID, "delete comment")
	}
	return nil
}
