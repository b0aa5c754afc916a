package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/services"
	"github.com/yukikurage/qa-tracker-api/internal/utils"
)

type BugHandler struct {
	bugs   *services.BugService
	triage *services.TriageService
}

func NewBugHandler(bugs *services.BugService, triage *services.TriageService) *BugHandler {
	return &BugHandler{
		bugs:   bugs,
		triage: triage,
	}
}

type createBugRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TesterID    uint64 `json:"testerId"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Type        string `json:"type"`
}

type updateBugRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Type        *string `json:"type"`
}

func (h *BugHandler) Create(c *gin.Context) {
	var req createBugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	bug, err := h.bugs.CreateBug(c.Request.Context(), services.CreateBugInput{
		Title:       req.Title,
		Description: req.Description,
		TesterID:    req.TesterID,
		Priority:    req.Priority,
		Status:      req.Status,
		Type:        req.Type,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusCreated, dto.ToBugDTO(*bug))
}

// List returns bugs newest first with their testers
func (h *BugHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	input := services.ListBugsInput{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Type:     c.Query("type"),
		Search:   c.Query("search"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if raw := c.Query("testerId"); raw != "" {
		testerID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "testerId", "must be a positive integer")
			return
		}
		input.TesterID = &testerID
	}

	bugs, total, err := h.bugs.ListBugs(input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithPage(c, http.StatusOK, dto.ToBugDTOs(bugs), utils.NewPaginationResponse(params, total))
}

func (h *BugHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	bug, err := h.bugs.GetBug(id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToBugDTO(*bug))
}

func (h *BugHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateBugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	bug, err := h.bugs.UpdateBug(c.Request.Context(), id, services.UpdateBugInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Type:        req.Type,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToBugDTO(*bug))
}

func (h *BugHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	bug, err := h.bugs.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToBugDTO(*bug))
}

func (h *BugHandler) UpdatePriority(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Priority string `json:"priority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	bug, err := h.bugs.UpdatePriority(c.Request.Context(), id, req.Priority)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToBugDTO(*bug))
}

func (h *BugHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.bugs.DeleteBug(c.Request.Context(), id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// Triage suggests a priority and type for a bug description
func (h *BugHandler) Triage(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	suggestion, err := h.triage.Suggest(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, suggestion)
}
