package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/qa-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
	"github.com/yukikurage/qa-tracker-api/internal/utils"
)

func testerPayload(email string) map[string]interface{} {
	return map[string]interface{}{
		"name":       "Иван Петров",
		"email":      email,
		"deviceType": "smartphone",
		"os":         "iOS",
		"osVersion":  "17.2",
	}
}

func TestTesterHandler_Register(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/testers", testerPayload("ivan@example.com"), cookies)

	require.Equal(t, http.StatusCreated, w.Code)
	var tester dto.TesterDTO
	decodeData(t, w, &tester)
	assert.NotZero(t, tester.ID)
	assert.Equal(t, "ivan@example.com", tester.Email)
	assert.Equal(t, models.TesterStatusActive, tester.Status)
	require.NotNil(t, tester.OSVersion)
	assert.Equal(t, "17.2", *tester.OSVersion)
	assert.Zero(t, tester.Rating)
}

func TestTesterHandler_RegisterDuplicateEmail(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/testers", testerPayload("dup@example.com"), cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/testers", testerPayload("DUP@example.com"), cookies)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, apierrors.ErrCodeConflict, body.Error.Code)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "email", body.Error.Details[0].Field)
}

func TestTesterHandler_RegisterReportsEveryField(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/testers", map[string]interface{}{"email": "nope"}, cookies)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, apierrors.ErrCodeValidation, body.Error.Code)
	fields := make([]string, 0, len(body.Error.Details))
	for _, d := range body.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "deviceType", "os"}, fields)
}

func TestTesterHandler_ListPaginates(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/api/testers", testerPayload(fmt.Sprintf("t%d@example.com", i)), cookies)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/testers?page=2&limit=2", nil, cookies)

	require.Equal(t, http.StatusOK, w.Code)
	var testers []dto.TesterDTO
	decodeData(t, w, &testers)
	assert.Len(t, testers, 1)

	var meta utils.PaginationResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Meta, &meta))
	assert.Equal(t, 2, meta.Page)
	assert.EqualValues(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
}

func TestTesterHandler_GetInvalidAndMissing(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodGet, "/api/testers/abc", nil, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/testers/999", nil, cookies)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.ErrCodeNotFound, decode(t, w).Error.Code)
}

func TestTesterHandler_TopAndPriorityChange(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/testers", testerPayload("top@example.com"), cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var tester dto.TesterDTO
	decodeData(t, w, &tester)

	w = env.do(t, http.MethodPost, "/api/bugs", map[string]interface{}{
		"title":    "Crash on launch",
		"testerId": tester.ID,
		"priority": "high",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var bug dto.BugDTO
	decodeData(t, w, &bug)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/bugs/%d/priority", bug.ID), map[string]string{"priority": "critical"}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/testers/top?limit=5", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var top []dto.TopTesterDTO
	decodeData(t, w, &top)
	require.Len(t, top, 1)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, tester.ID, top[0].ID)
	assert.Equal(t, 4, top[0].Rating)
}

func TestTesterHandler_ActivityFilter(t *testing.T) {
	env := setupHandlerTestEnv(t)
	cookies := env.login(t)

	w := env.do(t, http.MethodPost, "/api/testers", testerPayload("act@example.com"), cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var tester dto.TesterDTO
	decodeData(t, w, &tester)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/testers/%d/activity?eventType=registration", tester.ID), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.ActivityHistory
	decodeData(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, models.EventRegistration, history[0].EventType)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/testers/%d/activity?eventType=rating_updated", tester.ID), nil, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/testers/%d/activity?limit=x", tester.ID), nil, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
