package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	"github.com/yukikurage/qa-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/services"
	"github.com/yukikurage/qa-tracker-api/internal/utils"
)

type TesterHandler struct {
	testers  *services.TesterService
	rating   *services.RatingService
	activity *services.ActivityService
}

func NewTesterHandler(testers *services.TesterService, rating *services.RatingService, activity *services.ActivityService) *TesterHandler {
	return &TesterHandler{
		testers:  testers,
		rating:   rating,
		activity: activity,
	}
}

type registerTesterRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Nickname   *string `json:"nickname"`
	Telegram   *string `json:"telegram"`
	DeviceType string  `json:"deviceType"`
	OS         string  `json:"os"`
	OSVersion  *string `json:"osVersion"`
}

type updateTesterRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Nickname   *string `json:"nickname"`
	Telegram   *string `json:"telegram"`
	DeviceType *string `json:"deviceType"`
	OS         *string `json:"os"`
	OSVersion  *string `json:"osVersion"`
}

// Register creates a tester. Field checks happen in the service so every
// failing field is reported together.
func (h *TesterHandler) Register(c *gin.Context) {
	var req registerTesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	tester, err := h.testers.Register(c.Request.Context(), services.RegisterTesterInput{
		Name:       req.Name,
		Email:      req.Email,
		Nickname:   req.Nickname,
		Telegram:   req.Telegram,
		DeviceType: req.DeviceType,
		OS:         req.OS,
		OSVersion:  req.OSVersion,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusCreated, dto.ToTesterDTO(*tester))
}

// List returns a page of testers
// Supports status, search and sort filters
func (h *TesterHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	testers, total, err := h.testers.ListTesters(services.ListTestersInput{
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sort"),
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithPage(c, http.StatusOK, dto.ToTesterDTOs(testers), utils.NewPaginationResponse(params, total))
}

func (h *TesterHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tester, err := h.testers.GetTester(id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToTesterDTO(*tester))
}

func (h *TesterHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateTesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	tester, err := h.testers.UpdateTester(c.Request.Context(), id, services.UpdateTesterInput{
		Name:       req.Name,
		Email:      req.Email,
		Nickname:   req.Nickname,
		Telegram:   req.Telegram,
		DeviceType: req.DeviceType,
		OS:         req.OS,
		OSVersion:  req.OSVersion,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToTesterDTO(*tester))
}

func (h *TesterHandler) UpdateStatus(c *gin.Context) {
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

	tester, err := h.testers.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToTesterDTO(*tester))
}

func (h *TesterHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.testers.DeleteTester(c.Request.Context(), id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// Top returns the rating leaderboard
func (h *TesterHandler) Top(c *gin.Context) {
	limit, ok := queryInt(c, "limit", constants.DefaultTopTestersLimit)
	if !ok {
		return
	}

	testers, err := h.rating.GetTopTesters(c.Request.Context(), limit)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToTopTesterDTOs(testers))
}

func (h *TesterHandler) Bugs(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	bugs, err := h.testers.ListTesterBugs(id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToBugDTOs(bugs))
}

// Activity returns the tester's history, newest first
func (h *TesterHandler) Activity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", constants.DefaultActivityLimit)
	if !ok {
		return
	}

	history, err := h.activity.GetTesterActivity(id, c.Query("eventType"), limit)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, history)
}

// Rating reports the live rating breakdown without persisting it
func (h *TesterHandler) Rating(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, err := h.testers.GetTester(id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	result, err := h.rating.CalculateRating(id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, result)
}
