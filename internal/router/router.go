package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	"github.com/yukikurage/qa-tracker-api/internal/handlers"
	"github.com/yukikurage/qa-tracker-api/internal/middleware"
)

// Handlers groups every resource handler the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Testers       *handlers.TesterHandler
	Bugs          *handlers.BugHandler
	Comments      *handlers.CommentHandler
	Screenshots   *handlers.ScreenshotHandler
	Notifications *handlers.NotificationHandler
	Export        *handlers.ExportHandler
	System        *handlers.SystemHandler
}

type Router struct {
	handlers     Handlers
	store        sessions.Store
	loginLimiter *middleware.IPRateLimiter
	uploadsDir   string
}

// NewRouter builds a router. uploadsDir is served under /uploads when set.
func NewRouter(h Handlers, store sessions.Store, loginLimiter *middleware.IPRateLimiter, uploadsDir string) *Router {
	return &Router{
		handlers:     h,
		store:        store,
		loginLimiter: loginLimiter,
		uploadsDir:   uploadsDir,
	}
}

func (rt *Router) Init(r *gin.Engine) {
	r.Use(middleware.RequestLogger())
	r.Use(sessions.Sessions(constants.SessionCookieName, rt.store))

	r.GET("/health", rt.handlers.System.Health)
	if rt.uploadsDir != "" {
		r.Static("/uploads", rt.uploadsDir)
	}

	api := r.Group("/api")
	registerAuthRoutes(api, rt.handlers.Auth, rt.loginLimiter)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth())
	registerTesterRoutes(protected, rt.handlers.Testers)
	registerBugRoutes(protected, rt.handlers.Bugs, rt.handlers.Comments, rt.handlers.Screenshots)
	registerNotificationRoutes(protected, rt.handlers.Notifications)
	registerExportRoutes(protected, rt.handlers.Export)
	protected.POST("/sync/testers", rt.handlers.System.SyncTesters)
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, limiter *middleware.IPRateLimiter) {
	auth := api.Group("/auth")
	if limiter != nil {
		auth.POST("/login", middleware.RateLimit(limiter), h.Login)
	} else {
		auth.POST("/login", h.Login)
	}
	auth.POST("/logout", h.Logout)
	auth.GET("/session", middleware.RequireAuth(), h.Session)
}

func registerTesterRoutes(api *gin.RouterGroup, h *handlers.TesterHandler) {
	testers := api.Group("/testers")
	testers.POST("", h.Register)
	testers.GET("", h.List)
	testers.GET("/top", h.Top)
	testers.GET("/:id", h.Get)
	testers.PATCH("/:id", h.Update)
	testers.PATCH("/:id/status", h.UpdateStatus)
	testers.DELETE("/:id", h.Delete)
	testers.GET("/:id/bugs", h.Bugs)
	testers.GET("/:id/activity", h.Activity)
	testers.GET("/:id/rating", h.Rating)
}

func registerBugRoutes(api *gin.RouterGroup, h *handlers.BugHandler, comments *handlers.CommentHandler, screenshots *handlers.ScreenshotHandler) {
	bugs := api.Group("/bugs")
	bugs.POST("", h.Create)
	bugs.GET("", h.List)
	bugs.POST("/triage", h.Triage)
	bugs.GET("/:id", h.Get)
	bugs.PUT("/:id", h.Update)
	bugs.DELETE("/:id", h.Delete)
	bugs.PATCH("/:id/status", h.UpdateStatus)
	bugs.PATCH("/:id/priority", h.UpdatePriority)

	bugs.POST("/:id/comments", comments.Create)
	bugs.GET("/:id/comments", comments.List)
	bugs.PUT("/:id/comments/:commentId", comments.Update)
	bugs.DELETE("/:id/comments/:commentId", comments.Delete)

	bugs.POST("/:id/screenshots", screenshots.Upload)
	bugs.GET("/:id/screenshots", screenshots.List)
	bugs.GET("/:id/screenshots/statistics", screenshots.Statistics)
	bugs.GET("/:id/screenshots/:screenshotId", screenshots.Get)
	bugs.DELETE("/:id/screenshots/:screenshotId", screenshots.Delete)
}

func registerNotificationRoutes(api *gin.RouterGroup, h *handlers.NotificationHandler) {
	notifications := api.Group("/notifications")
	notifications.GET("", h.List)
	notifications.GET("/unread", h.Unread)
	notifications.GET("/count/unread", h.UnreadCount)
	notifications.PATCH("/read-all", h.MarkAllAsRead)
	notifications.GET("/:id", h.Get)
	notifications.PATCH("/:id/read", h.MarkAsRead)
	notifications.DELETE("/:id", h.Delete)
}

func registerExportRoutes(api *gin.RouterGroup, h *handlers.ExportHandler) {
	export := api.Group("/export")
	export.GET("/testers/csv", h.TestersCSV)
	export.GET("/testers/pdf", h.TestersHTML)
	export.GET("/bugs/csv", h.BugsCSV)
	export.GET("/bugs/pdf", h.BugsHTML)
}
