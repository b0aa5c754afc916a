package errors

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, Envelope{Success: false, Error: err})
}

// RespondWithData sends a success response
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Envelope{Success: true, Data: data})
}

// RespondWithPage sends a success response with pagination metadata
func RespondWithPage(c *gin.Context, statusCode int, data, meta interface{}) {
	c.JSON(statusCode, Envelope{Success: true, Data: data, Meta: meta})
}
