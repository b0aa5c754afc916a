package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/middleware"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/services"
)

// CommentHandler serves the comments nested under a bug. The session admin
// is the comment author.
type CommentHandler struct {
	comments *services.CommentService
	now      func() time.Time
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		now:      time.Now,
	}
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) toDTO(comment models.Comment) dto.CommentDTO {
	return dto.ToCommentDTO(comment, services.CanEdit(&comment, h.now()))
}

func currentAuthor(c *gin.Context) (services.Author, bool) {
	adminID, ok := middleware.GetAdminID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return services.Author{}, false
	}
	return services.Author{ID: adminID, Name: middleware.GetUsername(c)}, true
}

func (h *CommentHandler) Create(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}
	author, ok := currentAuthor(c)
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	comment, err := h.comments.Create(bugID, author, req.Content)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusCreated, h.toDTO(*comment))
}

func (h *CommentHandler) List(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}

	comments, err := h.comments.List(bugID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	items := make([]dto.CommentDTO, len(comments))
	for i, comment := range comments {
		items[i] = h.toDTO(comment)
	}
	apierrors.RespondWithData(c, http.StatusOK, items)
}

func (h *CommentHandler) Update(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	author, ok := currentAuthor(c)
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	comment, err := h.comments.Update(bugID, commentID, author.ID, req.Content)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, h.toDTO(*comment))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}
	author, ok := currentAuthor(c)
	if !ok {
		return
	}

	if err := h.comments.Delete(bugID, commentID, author.ID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{"id": commentID, "deleted": true})
}
