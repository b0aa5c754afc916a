package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/qa-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/services"
)

func (e *handlerTestEnv) seedBug(t *testing.T, cookies []*http.Cookie) dto.BugDTO {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/testers", testerPayload("bugs@example.com"), cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var tester dto.TesterDTO
	decodeData(t, w, &tester)

	w = e.do(t, http.MethodPost, "/api/bugs", map[string]interface{}{
		"title":       "Кнопка не нажимается",
		"description": "Steps: open settings",
		"testerId":    tester.ID,
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var bug dto.BugDTO
	decodeData(t, w, &bug)
	return bug
}

func TestBugHandler_CreateDefaults(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	bug := env.seedBug(t, cookies)

	assert.Equal(t, models.BugPriorityMedium, bug.Priority)
	assert.Equal(t, models.BugStatusNew, bug.Status)
	assert.Equal(t, models.BugTypeFunctionality, bug.Type)
	assert.Nil(t, bug.FixedAt)
}

func TestBugHandler_CreateUnknownTester(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/bugs", map[string]interface{}{
		"title":    "Orphan",
		"testerId": 4242,
	}, cookies)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.ErrCodeNotFound, decode(t, w).Error.Code)
}

func TestBugHandler_CreateInvalidEnums(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/bugs", map[string]interface{}{
		"title":    "",
		"testerId": 1,
		"priority": "urgent",
		"type":     "typo",
	}, cookies)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	fields := make([]string, 0, len(body.Error.Details))
	for _, d := range body.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.Subset(t, fields, []string{"title", "priority", "type"})
}

func TestBugHandler_TriageUnconfigured(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/bugs/triage", map[string]string{"title": "App freezes"}, cookies)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apierrors.ErrCodeServiceUnavailable, decode(t, w).Error.Code)
}

func TestCommentHandler_EditByAuthorOnly(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)
	bug := env.seedBug(t, cookies)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/bugs/%d/comments", bug.ID), map[string]string{"content": "Воспроизводится"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var comment dto.CommentDTO
	decodeData(t, w, &comment)
	assert.Equal(t, "admin", comment.AuthorName)
	assert.True(t, comment.CanEdit)
	assert.False(t, comment.IsEdited)

	path := fmt.Sprintf("/api/bugs/%d/comments/%d", bug.ID, comment.ID)
	w = env.do(t, http.MethodPut, path, map[string]string{"content": "Воспроизводится всегда"}, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &comment)
	assert.True(t, comment.IsEdited)
	assert.Equal(t, "Воспроизводится всегда", comment.Content)

	_, err := env.auth.CreateAdmin(services.CreateAdminInput{Username: "other", Password: "supersecret"})
	require.NoError(t, err)
	other := env.loginAs(t, "other")

	w = env.do(t, http.MethodPut, path, map[string]string{"content": "hijack"}, other)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apierrors.ErrCodeUnauthorized, decode(t, w).Error.Code)
}

func TestCommentHandler_UnknownBug(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/bugs/77/comments", map[string]string{"content": "hello"}, cookies)

	require.Equal(t, http.StatusNotFound, w.Code)
}
