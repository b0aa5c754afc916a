package dto

import (
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/models"
)

// BugDTO represents a bug in API responses
type BugDTO struct {
	ID          uint64             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	TesterID    uint64             `json:"testerId"`
	Priority    models.BugPriority `json:"priority"`
	Status      models.BugStatus   `json:"status"`
	Type        models.BugType     `json:"type"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	FixedAt     *time.Time         `json:"fixedAt"`
	Tester      *TesterSummaryDTO  `json:"tester,omitempty"`
}

// CommentDTO represents a comment with its current edit eligibility
type CommentDTO struct {
	ID         uint64    `json:"id"`
	BugID      uint64    `json:"bugId"`
	AuthorID   uint64    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsEdited   bool      `json:"isEdited"`
	CanEdit    bool      `json:"canEdit"`
}

// ScreenshotDTO represents a stored screenshot and where to fetch it
type ScreenshotDTO struct {
	ID         uint64    `json:"id"`
	BugID      uint64    `json:"bugId"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"fileSize"`
	MimeType   string    `json:"mimeType"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ToBugDTO converts a Bug model to BugDTO
func ToBugDTO(bug models.Bug) BugDTO {
	dto := BugDTO{
		ID:          bug.ID,
		Title:       bug.Title,
		Description: bug.Description,
		TesterID:    bug.TesterID,
		Priority:    bug.Priority,
		Status:      bug.Status,
		Type:        bug.Type,
		CreatedAt:   bug.CreatedAt,
		UpdatedAt:   bug.UpdatedAt,
		FixedAt:     bug.FixedAt,
	}

	// Include tester if preloaded
	if bug.Tester != nil && bug.Tester.ID != 0 {
		dto.Tester = &TesterSummaryDTO{
			ID:       bug.Tester.ID,
			Name:     bug.Tester.Name,
			Email:    bug.Tester.Email,
			Nickname: bug.Tester.Nickname,
		}
	}

	return dto
}

func ToBugDTOs(bugs []models.Bug) []BugDTO {
	items := make([]BugDTO, len(bugs))
	for i, b := range bugs {
		items[i] = ToBugDTO(b)
	}
	return items
}

// ToCommentDTO converts a Comment model
func ToCommentDTO(c models.Comment, canEdit bool) CommentDTO {
	return CommentDTO{
		ID:         c.ID,
		BugID:      c.BugID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		IsEdited:   c.IsEdited,
		CanEdit:    canEdit,
	}
}

// ToScreenshotDTO converts a Screenshot model; url is resolved by the storage backend
func ToScreenshotDTO(s models.Screenshot, url string) ScreenshotDTO {
	return ScreenshotDTO{
		ID:         s.ID,
		BugID:      s.BugID,
		Filename:   s.Filename,
		FileSize:   s.FileSize,
		MimeType:   s.MimeType,
		URL:        url,
		UploadedAt: s.UploadedAt,
	}
}
