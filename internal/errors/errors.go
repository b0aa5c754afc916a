package errors

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
)

// Error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeEditWindowExpired  = "EDIT_WINDOW_EXPIRED"
	ErrCodeLimitExceeded      = "LIMIT_EXCEEDED"
	ErrCodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// FieldError describes one failing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError represents a standardized API error response
type APIError struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Details   []FieldError `json:"details,omitempty"`
	Status    int          `json:"-"`
	Retryable bool         `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + ": " + d.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// NewAPIError creates a new APIError
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// NewValidationError reports every failing field at once.
func NewValidationError(details ...FieldError) *APIError {
	return &APIError{
		Code:    ErrCodeValidation,
		Message: "Validation failed",
		Details: details,
		Status:  http.StatusBadRequest,
	}
}

// NewNotFoundError reports a missing resource by id.
func NewNotFoundError(resource string, id interface{}) *APIError {
	return NewAPIError(http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("%s with id %v not found", resource, id))
}

// NewConflictError reports a uniqueness or business-rule clash on field.
func NewConflictError(field, message string) *APIError {
	err := NewAPIError(http.StatusConflict, ErrCodeConflict, message)
	if field != "" {
		err.Details = []FieldError{{Field: field, Message: message}}
	}
	return err
}

// NewUnauthorizedError is used when no admin session is present.
func NewUnauthorizedError(message string) *APIError {
	if message == "" {
		message = "Authentication required"
	}
	return NewAPIError(http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// NewAuthorizationError is used when the actor is not allowed to touch the resource.
func NewAuthorizationError(message string) *APIError {
	if message == "" {
		message = "Access denied"
	}
	return NewAPIError(http.StatusForbidden, ErrCodeUnauthorized, message)
}

func NewEditWindowExpiredError(message string) *APIError {
	return NewAPIError(http.StatusConflict, ErrCodeEditWindowExpired, message)
}

func NewLimitExceededError(message string) *APIError {
	return NewAPIError(http.StatusConflict, ErrCodeLimitExceeded, message)
}

// NewExternalServiceError marks a failure of a remote collaborator; callers may retry it.
func NewExternalServiceError(message string) *APIError {
	err := NewAPIError(http.StatusBadGateway, ErrCodeExternalService, message)
	err.Retryable = true
	return err
}

func NewServiceUnavailableError(message string) *APIError {
	return NewAPIError(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

func NewInternalError(message string) *APIError {
	if message == "" {
		message = "Internal server error"
	}
	return NewAPIError(http.StatusInternalServerError, ErrCodeInternalError, message)
}

// AsAPIError unwraps err into an *APIError when it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasCode reports whether err is an *APIError with the given code.
func HasCode(err error, code string) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == code
}

// FromBindingError converts gin binding failures into a validation error
// listing every failing field.
func FromBindingError(err error) *APIError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			details = append(details, FieldError{
				Field:   lowerFirst(fe.Field()),
				Message: describeTag(fe),
			})
		}
		return NewValidationError(details...)
	}
	return NewValidationError(FieldError{Field: "body", Message: "Invalid request body"})
}

var registerOnce sync.Once

// UseJSONFieldNames makes binding failures report json field names.
func UseJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// Predefined errors
var (
	ErrUnauthorized       = NewUnauthorizedError("")
	ErrInternalError      = NewInternalError("")
	ErrServiceUnavailable = NewServiceUnavailableError("Service temporarily unavailable")
)

// Respond writes err in the error envelope. Unknown errors are logged and
// reported as INTERNAL_ERROR.
func Respond(c *gin.Context, err error) {
	if apiErr, ok := AsAPIError(err); ok {
		RespondWithError(c, apiErr.Status, apiErr)
		return
	}
	logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	RespondWithError(c, http.StatusInternalServerError, ErrInternalError)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, NewUnauthorizedError(message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, NewAuthorizationError(message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, resource string, id interface{}) {
	RespondWithError(c, http.StatusNotFound, NewNotFoundError(resource, id))
}

// BadRequest sends a 400 response for a single field
func BadRequest(c *gin.Context, field, message string) {
	RespondWithError(c, http.StatusBadRequest, NewValidationError(FieldError{Field: field, Message: message}))
}

// BindingError sends a 400 response describing a failed request bind
func BindingError(c *gin.Context, err error) {
	RespondWithError(c, http.StatusBadRequest, FromBindingError(err))
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context) {
	RespondWithError(c, http.StatusTooManyRequests, NewAPIError(http.StatusTooManyRequests, ErrCodeRateLimited, "Too many requests, try again later"))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, NewInternalError(message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	RespondWithError(c, http.StatusServiceUnavailable, NewServiceUnavailableError(message))
}
