package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
)

var author = Author{ID: 1, Name: "admin"}

func setupComment(t *testing.T) (*testEnv, *models.Bug, *models.Comment, time.Time) {
	t.Helper()
	env := setupTestEnv(t)
	tester := env.registerTester(t, "comments@example.com")
	bug := env.createBug(t, tester.ID, models.BugPriorityMedium)

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	env.comments.now = func() time.Time { return created }

	comment, err := env.comments.Create(bug.ID, author, "  first look  ")
	require.NoError(t, err)
	return env, bug, comment, created
}

func TestCommentCreate_TouchesBug(t *testing.T) {
	env, bug, comment, created := setupComment(t)

	assert.Equal(t, "first look", comment.Content)
	assert.Equal(t, "admin", comment.AuthorName)
	assert.False(t, comment.IsEdited)

	var stored models.Bug
	require.NoError(t, env.db.First(&stored, bug.ID).Error)
	assert.True(t, stored.UpdatedAt.Equal(created))
}

func TestCommentCreate_MissingBugPersistsNothing(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.comments.Create(999, author, "orphan")
	assertCode(t, err, apierrors.ErrCodeNotFound)

	var count int64
	env.db.Model(&models.Comment{}).Count(&count)
	assert.Zero(t, count)
}

func TestCommentCreate_RejectsBlankContent(t *testing.T) {
	env, bug, _, _ := setupComment(t)

	_, err := env.comments.Create(bug.ID, author, "   ")
	assertCode(t, err, apierrors.ErrCodeValidation)
}

func TestCommentEdit_InsideWindow(t *testing.T) {
	env, bug, comment, created := setupComment(t)
	env.comments.now = func() time.Time { return created.Add(14*time.Minute + 59*time.Second) }

	updated, err := env.comments.Update(bug.ID, comment.ID, author.ID, "second look")
	require.NoError(t, err)
	assert.Equal(t, "second look", updated.Content)
	assert.True(t, updated.IsEdited)
}

func TestCommentEdit_AfterWindow(t *testing.T) {
	env, bug, comment, created := setupComment(t)
	env.comments.now = func() time.Time { return created.Add(15*time.Minute + time.Second) }

	_, err := env.comments.Update(bug.ID, comment.ID, author.ID, "too late")
	assertCode(t, err, apierrors.ErrCodeEditWindowExpired)
}

func TestCommentEdit_ExactlyFifteenMinutes(t *testing.T) {
	env, bug, comment, created := setupComment(t)
	env.comments.now = func() time.Time { return created.Add(15 * time.Minute) }

	_, err := env.comments.Update(bug.ID, comment.ID, author.ID, "just in time")
	require.NoError(t, err)
}

func TestCommentEdit_OtherAuthorForbidden(t *testing.T) {
	env, bug, comment, _ := setupComment(t)

	_, err := env.comments.Update(bug.ID, comment.ID, 2, "not mine")
	require.Error(t, err)
	apiErr, ok := apierrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, apiErr.Code)
	assert.Equal(t, 403, apiErr.Status)
}

func TestCommentEdit_WrongBugNotFound(t *testing.T) {
	env, _, comment, _ := setupComment(t)

	_, err := env.comments.Update(12345, comment.ID, author.ID, "moved")
	assertCode(t, err, apierrors.ErrCodeNotFound)
}

func TestCommentDelete_NoTimeLimitButAuthorOnly(t *testing.T) {
	env, bug, comment, created := setupComment(t)
	env.comments.now = func() time.Time { return created.Add(48 * time.Hour) }

	err := env.comments.Delete(bug.ID, comment.ID, 2)
	assertCode(t, err, apierrors.ErrCodeUnauthorized)

	require.NoError(t, env.comments.Delete(bug.ID, comment.ID, author.ID))

	comments, err := env.comments.List(bug.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCanEdit(t *testing.T) {
	created := time.Now()
	c := &models.Comment{CreatedAt: created}
	assert.True(t, CanEdit(c, created))
	assert.True(t, CanEdit(c, created.Add(15*time.Minute)))
	assert.False(t, CanEdit(c, created.Add(15*time.Minute+time.Nanosecond)))
}
