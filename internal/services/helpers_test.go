package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/qa-tracker-api/internal/cache"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/repository"
	"github.com/yukikurage/qa-tracker-api/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingMirror captures spreadsheet sync requests
type recordingMirror struct {
	mu     sync.Mutex
	labels []string
	rows   []models.Tester
}

func (m *recordingMirror) SyncTesters(label string, testers ...models.Tester) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels = append(m.labels, label)
	m.rows = append(m.rows, testers...)
}

type testEnv struct {
	db            *gorm.DB
	files         *storage.LocalStorage
	mirror        *recordingMirror
	rating        *RatingService
	activity      *ActivityService
	notifications *NotificationService
	testers       *TesterService
	bugs          *BugService
	comments      *CommentService
	screenshots   *ScreenshotService
	auth          *AuthService
	export        *ExportService
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	return db
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := openTestDB(t)
	testerRepo := repository.NewTesterRepository(db)
	bugRepo := repository.NewBugRepository(db)
	c := cache.New(nil, "test", time.Minute)

	env := &testEnv{
		db:     db,
		files:  storage.NewLocalStorage(t.TempDir(), "/uploads/"),
		mirror: &recordingMirror{},
	}
	env.rating = NewRatingService(testerRepo, bugRepo, c)
	env.activity = NewActivityService(repository.NewActivityRepository(db), testerRepo)
	env.notifications = NewNotificationService(repository.NewNotificationRepository(db), c)
	env.testers = NewTesterService(testerRepo, bugRepo, env.activity, env.notifications, env.rating, env.files, env.mirror, InlineEffects{})
	env.bugs = NewBugService(bugRepo, testerRepo, env.rating, env.activity, env.notifications, env.files, InlineEffects{})
	env.comments = NewCommentService(repository.NewCommentRepository(db), bugRepo)
	env.screenshots = NewScreenshotService(repository.NewScreenshotRepository(db), bugRepo, env.files)
	env.auth = NewAuthService(repository.NewAdminRepository(db))
	env.export = NewExportService(testerRepo, bugRepo)
	return env
}

func (e *testEnv) registerTester(t *testing.T, email string) *models.Tester {
	t.Helper()
	tester, err := e.testers.Register(context.Background(), RegisterTesterInput{
		Name:       "Tester " + email,
		Email:      email,
		DeviceType: "smartphone",
		OS:         "Android",
	})
	require.NoError(t, err)
	return tester
}

func (e *testEnv) createBug(t *testing.T, testerID uint64, priority models.BugPriority) *models.Bug {
	t.Helper()
	bug, err := e.bugs.CreateBug(context.Background(), CreateBugInput{
		Title:    "Bug " + string(priority),
		TesterID: testerID,
		Priority: string(priority),
	})
	require.NoError(t, err)
	return bug
}

func (e *testEnv) reloadTester(t *testing.T, id uint64) *models.Tester {
	t.Helper()
	tester, err := e.testers.GetTester(id)
	require.NoError(t, err)
	return tester
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	apiErr, ok := apierrors.AsAPIError(err)
	require.True(t, ok, "expected APIError, got %v", err)
	require.Equal(t, code, apiErr.Code)
}
