package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/services"
)

// ScreenshotFormField is the multipart field carrying the image.
const ScreenshotFormField = "screenshot"

type ScreenshotHandler struct {
	screenshots *services.ScreenshotService
}

func NewScreenshotHandler(screenshots *services.ScreenshotService) *ScreenshotHandler {
	return &ScreenshotHandler{screenshots: screenshots}
}

func (h *ScreenshotHandler) toDTO(s models.Screenshot) dto.ScreenshotDTO {
	return dto.ToScreenshotDTO(s, h.screenshots.URL(&s))
}

func (h *ScreenshotHandler) Upload(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile(ScreenshotFormField)
	if err != nil {
		apierrors.BadRequest(c, ScreenshotFormField, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	screenshot, err := h.screenshots.Upload(c.Request.Context(), bugID, services.UploadInput{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  file,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusCreated, h.toDTO(*screenshot))
}

func (h *ScreenshotHandler) List(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}

	screenshots, err := h.screenshots.List(bugID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	items := make([]dto.ScreenshotDTO, len(screenshots))
	for i, s := range screenshots {
		items[i] = h.toDTO(s)
	}
	apierrors.RespondWithData(c, http.StatusOK, items)
}

func (h *ScreenshotHandler) Get(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}
	screenshotID, ok := pathID(c, "screenshotId")
	if !ok {
		return
	}

	screenshot, err := h.screenshots.Get(bugID, screenshotID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, h.toDTO(*screenshot))
}

func (h *ScreenshotHandler) Delete(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}
	screenshotID, ok := pathID(c, "screenshotId")
	if !ok {
		return
	}

	if err := h.screenshots.Delete(c.Request.Context(), bugID, screenshotID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{"id": screenshotID, "deleted": true})
}

func (h *ScreenshotHandler) Statistics(c *gin.Context) {
	bugID, ok := pathID(c, "id")
	if !ok {
		return
	}

	stats, err := h.screenshots.Statistics(bugID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, stats)
}
