package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	"github.com/yukikurage/qa-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/middleware"
	"github.com/yukikurage/qa-tracker-api/internal/services"
)

// AuthHandler coordinates admin session handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login authenticates an admin and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	admin, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyAdminID, admin.ID)
	session.Set(constants.ContextKeyUsername, admin.Username)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, dto.ToAdminDTO(*admin))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Session returns the authenticated admin.
func (h *AuthHandler) Session(c *gin.Context) {
	adminID, exists := middleware.GetAdminID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	admin, err := h.authService.GetAdmin(adminID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	apierrors.RespondWithData(c, http.StatusOK, gin.H{
		"authenticated": true,
		"admin":         dto.ToAdminDTO(*admin),
	})
}
