package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/services"
)

// NotificationHandler serves the admin inbox. Notifications are created by
// the system only, so there is no create route.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) find(c *gin.Context, unreadOnly bool) {
	limit, ok := queryInt(c, "limit", constants.DefaultNotificationLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	if raw := c.Query("unreadOnly"); raw != "" && !unreadOnly {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "unreadOnly", "must be a boolean")
			return
		}
		unreadOnly = v
	}

	page, err := h.notifications.FindAll(c.Request.Context(), services.FindNotificationsInput{
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, page)
}

func (h *NotificationHandler) List(c *gin.Context) {
	h.find(c, false)
}

func (h *NotificationHandler) Unread(c *gin.Context) {
	h.find(c, true)
}

func (h *NotificationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	notification, err := h.notifications.GetByID(id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, notification)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	notification, err := h.notifications.MarkAsRead(c.Request.Context(), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, notification)
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllAsRead(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{"updated": updated})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{"count": count})
}
