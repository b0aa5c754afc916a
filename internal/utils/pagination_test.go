package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	p := GetPaginationParams(testContext("/?page=3&limit=10"))
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10, Offset: 20}, p)

	p = GetPaginationParams(testContext("/?page=0&limit=1000"))
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, constants.DefaultPageSize, p.Limit)
}

func TestNewPaginationResponse(t *testing.T) {
	resp := NewPaginationResponse(PaginationParams{Page: 1, Limit: 10}, 21)
	assert.Equal(t, 3, resp.TotalPages)

	resp = NewPaginationResponse(PaginationParams{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 0, resp.TotalPages)
}

func TestQueryInt(t *testing.T) {
	v, ok := QueryInt(testContext("/?limit=5"), "limit", 10)
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	v, ok = QueryInt(testContext("/"), "limit", 10)
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = QueryInt(testContext("/?limit=abc"), "limit", 10)
	assert.False(t, ok)
}
