package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/qa-tracker-api/internal/cache"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/middleware"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
	"github.com/yukikurage/qa-tracker-api/internal/services"
	"github.com/yukikurage/qa-tracker-api/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type handlerTestEnv struct {
	db            *gorm.DB
	router        *gin.Engine
	auth          *services.AuthService
	testers       *services.TesterService
	bugs          *services.BugService
	notifications *services.NotificationService
}

// envelope mirrors apierrors.Envelope with raw data for per-test decoding
type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Meta    json.RawMessage     `json:"meta"`
	Error   *apierrors.APIError `json:"error"`
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apierrors.UseJSONFieldNames()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(models.All()...))

	testerRepo := repository.NewTesterRepository(db)
	bugRepo := repository.NewBugRepository(db)
	c := cache.New(nil, "test", time.Minute)
	files := storage.NewLocalStorage(t.TempDir(), "/uploads/")

	rating := services.NewRatingService(testerRepo, bugRepo, c)
	activity := services.NewActivityService(repository.NewActivityRepository(db), testerRepo)
	notifications := services.NewNotificationService(repository.NewNotificationRepository(db), c)

	env := &handlerTestEnv{
		db:            db,
		auth:          services.NewAuthService(repository.NewAdminRepository(db)),
		testers:       services.NewTesterService(testerRepo, bugRepo, activity, notifications, rating, files, nil, services.InlineEffects{}),
		bugs:          services.NewBugService(bugRepo, testerRepo, rating, activity, notifications, files, services.InlineEffects{}),
		notifications: notifications,
	}

	authHandler := NewAuthHandler(env.auth)
	testerHandler := NewTesterHandler(env.testers, rating, activity)
	bugHandler := NewBugHandler(env.bugs, nil)
	commentHandler := NewCommentHandler(services.NewCommentService(repository.NewCommentRepository(db), bugRepo))
	notificationHandler := NewNotificationHandler(notifications)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/auth/logout", authHandler.Logout)
	r.GET("/api/auth/session", middleware.RequireAuth(), authHandler.Session)

	api := r.Group("/api", middleware.RequireAuth())
	api.POST("/testers", testerHandler.Register)
	api.GET("/testers", testerHandler.List)
	api.GET("/testers/top", testerHandler.Top)
	api.GET("/testers/:id", testerHandler.Get)
	api.GET("/testers/:id/activity", testerHandler.Activity)
	api.POST("/bugs", bugHandler.Create)
	api.PATCH("/bugs/:id/priority", bugHandler.UpdatePriority)
	api.POST("/bugs/triage", bugHandler.Triage)
	api.POST("/bugs/:id/comments", commentHandler.Create)
	api.PUT("/bugs/:id/comments/:commentId", commentHandler.Update)
	api.GET("/notifications", notificationHandler.List)
	api.GET("/notifications/count/unread", notificationHandler.UnreadCount)
	api.GET("/notifications/:id", notificationHandler.Get)
	api.PATCH("/notifications/:id/read", notificationHandler.MarkAsRead)
	env.router = r

	_, err = env.auth.CreateAdmin(services.CreateAdminInput{Username: "admin", Password: "supersecret"})
	require.NoError(t, err)
	return env
}

// login returns the session cookies of a fresh admin login
func (e *handlerTestEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()
	return e.loginAs(t, "admin")
}

func (e *handlerTestEnv) loginAs(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func (e *handlerTestEnv) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, "unexpected error: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
}
