package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
)

func TestCreateBug_MissingTester(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.bugs.CreateBug(context.Background(), CreateBugInput{Title: "x", TesterID: 77})
	assertCode(t, err, apierrors.ErrCodeNotFound)
}

func TestCreateBug_Defaults(t *testing.T) {
	env := setupTestEnv(t)
	tester := env.registerTester(t, "defaults@example.com")

	bug, err := env.bugs.CreateBug(context.Background(), CreateBugInput{Title: "Login fails", TesterID: tester.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BugPriorityMedium, bug.Priority)
	assert.Equal(t, models.BugStatusNew, bug.Status)
	assert.Equal(t, models.BugTypeFunctionality, bug.Type)
	assert.Nil(t, bug.FixedAt)
	require.NotNil(t, bug.Tester)
	assert.Equal(t, tester.ID, bug.Tester.ID)

	stored := env.reloadTester(t, tester.ID)
	assert.NotNil(t, stored.LastActivityDate)
}

func TestCreateBug_ValidationListsEveryField(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.bugs.CreateBug(context.Background(), CreateBugInput{Priority: "urgent", Type: "cosmetic"})
	apiErr, ok := apierrors.AsAPIError(err)
	require.True(t, ok)

	fields := make([]string, 0, len(apiErr.Details))
	for _, d := range apiErr.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"title", "testerId", "priority", "type"}, fields)
}

func TestCreateBug_RecordsActivity(t *testing.T) {
	env := setupTestEnv(t)
	tester := env.registerTester(t, "act@example.com")
	env.createBug(t, tester.ID, models.BugPriorityHigh)

	found, err := env.activity.GetTesterActivity(tester.ID, string(models.EventBugFound), 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Description, "Bug high")

	var ratingEvents int64
	env.db.Model(&models.ActivityHistory{}).
		Where("tester_id = ? AND event_type = ?", tester.ID, models.EventRatingUpdated).
		Count(&ratingEvents)
	assert.EqualValues(t, 1, ratingEvents)
}

func TestCriticalBug_RaisesNotification(t *testing.T) {
	env := setupTestEnv(t)
	tester := env.registerTester(t, "crit@example.com")

	countCritical := func() int64 {
		var n int64
		env.db.Model(&models.Notification{}).Where("type = ?", models.NotificationCriticalBug).Count(&n)
		return n
	}

	medium := env.createBug(t, tester.ID, models.BugPriorityMedium)
	assert.Zero(t, countCritical())

	env.createBug(t, tester.ID, models.BugPriorityCritical)
	assert.EqualValues(t, 1, countCritical())

	_, err := env.bugs.UpdatePriority(context.Background(), medium.ID, "critical")
	require.NoError(t, err)
	assert.EqualValues(t, 2, countCritical())
}

func TestBugStatus_FixedAtFollowsStatus(t *testing.T) {
	env := setupTestEnv(t)
	tester := env.registerTester(t, "fix@example.com")
	bug := env.createBug(t, tester.ID, models.BugPriorityLow)

	fixed, err := env.bugs.UpdateStatus(context.Background(), bug.ID, "fixed")
	require.NoError(t, err)
	require.NotNil(t, fixed.FixedAt)

	reopened, err := env.bugs.UpdateStatus(context.Background(), bug.ID, "in_progress")
	require.NoError(t, err)
	assert.Nil(t, reopened.FixedAt)

	_, err = env.bugs.UpdateStatus(context.Background(), bug.ID, "wontfix")
	assertCode(t, err, apierrors.ErrCodeValidation)
}

func TestListBugs_Filters(t *testing.T) {
	env := setupTestEnv(t)
	a := env.registerTester(t, "la@example.com")
	b := env.registerTester(t, "lb@example.com")
	env.createBug(t, a.ID, models.BugPriorityLow)
	env.createBug(t, a.ID, models.BugPriorityCritical)
	env.createBug(t, b.ID, models.BugPriorityCritical)

	bugs, total, err := env.bugs.ListBugs(ListBugsInput{Priority: "critical", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, bugs, 2)

	bugs, total, err = env.bugs.ListBugs(ListBugsInput{TesterID: &a.ID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, bug := range bugs {
		require.NotNil(t, bug.Tester)
		assert.Equal(t, a.ID, bug.Tester.ID)
	}

	byTester, err := env.testers.ListTesterBugs(b.ID)
	require.NoError(t, err)
	assert.Len(t, byTester, 1)
}

func TestDeleteBug_NotFound(t *testing.T) {
	env := setupTestEnv(t)
	err := env.bugs.DeleteBug(context.Background(), 404)
	assertCode(t, err, apierrors.ErrCodeNotFound)
}
