package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RepositoryTestSuite exercises the GORM repositories against in-memory SQLite
type RepositoryTestSuite struct {
	suite.Suite
	db            *gorm.DB
	testers       TesterRepository
	bugs          BugRepository
	comments      CommentRepository
	screenshots   ScreenshotRepository
	notifications NotificationRepository
	activity      ActivityRepository
}

func (s *RepositoryTestSuite) SetupTest() {
	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(s.db.AutoMigrate(models.All()...))

	s.testers = NewTesterRepository(s.db)
	s.bugs = NewBugRepository(s.db)
	s.comments = NewCommentRepository(s.db)
	s.screenshots = NewScreenshotRepository(s.db)
	s.notifications = NewNotificationRepository(s.db)
	s.activity = NewActivityRepository(s.db)
}

func (s *RepositoryTestSuite) TearDownTest() {
	sqlDB, _ := s.db.DB()
	sqlDB.Close()
}

func (s *RepositoryTestSuite) createTester(email string, rating, bugsCount int, registered time.Time) *models.Tester {
	tester := &models.Tester{
		Name:             "Tester " + email,
		Email:            email,
		DeviceType:       "desktop",
		OS:               "Linux",
		Status:           models.TesterStatusActive,
		RegistrationDate: registered,
		Rating:           rating,
		BugsCount:        bugsCount,
	}
	s.Require().NoError(s.testers.Create(tester))
	return tester
}

func (s *RepositoryTestSuite) createBug(testerID uint64, priority models.BugPriority) *models.Bug {
	bug := &models.Bug{
		Title:    "Bug",
		TesterID: testerID,
		Priority: priority,
		Status:   models.BugStatusNew,
		Type:     models.BugTypeUI,
	}
	s.Require().NoError(s.bugs.Create(bug))
	return bug
}

func (s *RepositoryTestSuite) TestTopTestersOrdering() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := s.createTester("late@example.com", 10, 4, base.Add(48*time.Hour))
	early := s.createTester("early@example.com", 10, 4, base)
	fewer := s.createTester("fewer@example.com", 10, 3, base)
	best := s.createTester("best@example.com", 12, 3, base.Add(72*time.Hour))
	s.createTester("zero@example.com", 0, 0, base)

	top, err := s.testers.TopTesters(10)
	s.Require().NoError(err)

	ids := make([]uint64, len(top))
	for i, t := range top {
		ids[i] = t.ID
	}
	s.Equal([]uint64{best.ID, early.ID, late.ID, fewer.ID}, ids)

	top, err = s.testers.TopTesters(2)
	s.Require().NoError(err)
	s.Len(top, 2)
}

func (s *RepositoryTestSuite) TestFindByEmailIgnoresCase() {
	created := s.createTester("Case@Example.com", 0, 0, time.Now())

	found, err := s.testers.FindByEmail("case@example.COM")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
}

func (s *RepositoryTestSuite) TestUniqueEmailTranslatesToDuplicatedKey() {
	s.createTester("dup@example.com", 0, 0, time.Now())

	err := s.testers.Create(&models.Tester{
		Name:             "Again",
		Email:            "dup@example.com",
		DeviceType:       "desktop",
		OS:               "Linux",
		RegistrationDate: time.Now(),
	})
	s.True(errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func (s *RepositoryTestSuite) TestUpdateRatingMissingTester() {
	err := s.testers.UpdateRating(999, 5, 2)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestCountByPriority() {
	tester := s.createTester("count@example.com", 0, 0, time.Now())
	s.createBug(tester.ID, models.BugPriorityHigh)
	s.createBug(tester.ID, models.BugPriorityHigh)
	s.createBug(tester.ID, models.BugPriorityLow)

	counts, err := s.bugs.CountByPriority(tester.ID)
	s.Require().NoError(err)
	s.Equal(map[models.BugPriority]int{models.BugPriorityHigh: 2, models.BugPriorityLow: 1}, counts)
}

func (s *RepositoryTestSuite) TestScreenshotLimitIsEnforcedInsideTransaction() {
	tester := s.createTester("shots@example.com", 0, 0, time.Now())
	bug := s.createBug(tester.ID, models.BugPriorityLow)

	newShot := func(i int) *models.Screenshot {
		return &models.Screenshot{
			BugID:      bug.ID,
			Filename:   fmt.Sprintf("%d.png", i),
			FilePath:   fmt.Sprintf("p/%d.png", i),
			FileSize:   100,
			MimeType:   "image/png",
			UploadedAt: time.Now(),
		}
	}

	for i := 0; i < 10; i++ {
		s.Require().NoError(s.screenshots.CreateWithinLimit(newShot(i), 10))
	}
	s.ErrorIs(s.screenshots.CreateWithinLimit(newShot(10), 10), ErrScreenshotLimitReached)

	count, size, err := s.screenshots.Stats(bug.ID)
	s.Require().NoError(err)
	s.EqualValues(10, count)
	s.EqualValues(1000, size)

	missing := newShot(11)
	missing.BugID = 999
	s.ErrorIs(s.screenshots.CreateWithinLimit(missing, 10), gorm.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestCreateCommentTouchesBug() {
	tester := s.createTester("comments@example.com", 0, 0, time.Now())
	bug := s.createBug(tester.ID, models.BugPriorityLow)

	touched := bug.UpdatedAt.Add(time.Hour).Truncate(time.Second)
	comment := &models.Comment{BugID: bug.ID, AuthorID: 1, AuthorName: "admin", Content: "hi"}
	s.Require().NoError(s.comments.CreateAndTouchBug(comment, touched))

	reloaded, err := s.bugs.FindByID(bug.ID)
	s.Require().NoError(err)
	s.True(reloaded.UpdatedAt.Equal(touched), "updated_at %v, want %v", reloaded.UpdatedAt, touched)

	orphan := &models.Comment{BugID: 999, AuthorID: 1, AuthorName: "admin", Content: "lost"}
	s.ErrorIs(s.comments.CreateAndTouchBug(orphan, touched), gorm.ErrRecordNotFound)

	var total int64
	s.Require().NoError(s.db.Model(&models.Comment{}).Count(&total).Error)
	s.EqualValues(1, total)
}

func (s *RepositoryTestSuite) TestDeleteTesterCascades() {
	tester := s.createTester("gone@example.com", 0, 0, time.Now())
	other := s.createTester("stays@example.com", 0, 0, time.Now())
	bug := s.createBug(tester.ID, models.BugPriorityHigh)
	kept := s.createBug(other.ID, models.BugPriorityHigh)

	s.Require().NoError(s.comments.CreateAndTouchBug(&models.Comment{BugID: bug.ID, AuthorID: 1, AuthorName: "a", Content: "c"}, time.Now()))
	s.Require().NoError(s.screenshots.CreateWithinLimit(&models.Screenshot{
		BugID: bug.ID, Filename: "a.png", FilePath: "2024/01/01/a.png", FileSize: 1, MimeType: "image/png", UploadedAt: time.Now(),
	}, 10))
	s.Require().NoError(s.activity.Create(&models.ActivityHistory{TesterID: tester.ID, EventType: models.EventRegistration, Description: "x"}))

	paths, err := s.testers.Delete(tester.ID)
	s.Require().NoError(err)
	s.Equal([]string{"2024/01/01/a.png"}, paths)

	var bugs, comments, shots, history int64
	s.db.Model(&models.Bug{}).Count(&bugs)
	s.db.Model(&models.Comment{}).Count(&comments)
	s.db.Model(&models.Screenshot{}).Count(&shots)
	s.db.Model(&models.ActivityHistory{}).Count(&history)
	s.EqualValues(1, bugs)
	s.Zero(comments)
	s.Zero(shots)
	s.Zero(history)

	_, err = s.bugs.FindByID(kept.ID)
	s.NoError(err)

	_, err = s.testers.Delete(tester.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *RepositoryTestSuite) TestNotificationsNewestFirst() {
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.notifications.Create(&models.Notification{
			Type:      models.NotificationInfo,
			Title:     fmt.Sprintf("n%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, total, err := s.notifications.List(NotificationFilter{Limit: 2})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Require().Len(list, 2)
	s.Equal("n2", list[0].Title)
	s.Equal("n1", list[1].Title)

	read, err := s.notifications.MarkAsRead(list[0].ID)
	s.Require().NoError(err)
	s.True(read.IsRead)

	unread, err := s.notifications.CountUnread()
	s.Require().NoError(err)
	s.EqualValues(2, unread)

	missing, err := s.notifications.MarkAsRead(999)
	s.NoError(err)
	s.Nil(missing)

	deleted, err := s.notifications.Delete(999)
	s.NoError(err)
	s.False(deleted)
}

func (s *RepositoryTestSuite) TestActivityFilterAndLimit() {
	tester := s.createTester("history@example.com", 0, 0, time.Now())
	base := time.Now().Add(-time.Hour)
	events := []models.ActivityEventType{models.EventRegistration, models.EventBugFound, models.EventBugFound}
	for i, et := range events {
		s.Require().NoError(s.activity.Create(&models.ActivityHistory{
			TesterID:    tester.ID,
			EventType:   et,
			Description: string(et),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	bugFound := models.EventBugFound
	list, err := s.activity.ListByTester(tester.ID, &bugFound, 10)
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = s.activity.ListByTester(tester.ID, nil, 1)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(models.EventBugFound, list[0].EventType)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
