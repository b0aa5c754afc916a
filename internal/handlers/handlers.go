package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/utils"
)

// pathID reads a numeric path parameter and answers 400 when it is not one.
func pathID(c *gin.Context, key string) (uint64, bool) {
	id, ok := utils.ParamID(c, key)
	if !ok {
		apierrors.BadRequest(c, key, "must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter and answers 400 when it
// is present but malformed.
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	v, ok := utils.QueryInt(c, key, def)
	if !ok {
		apierrors.BadRequest(c, key, "must be an integer")
		return 0, false
	}
	return v, true
}
