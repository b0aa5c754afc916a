package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var validate = validator.New()

// fieldErrors collects every failing field before reporting.
type fieldErrors []apierrors.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apierrors.FieldError{Field: field, Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apierrors.NewValidationError(f...)
}

func (f *fieldErrors) requireText(field, value string, maxRunes int) {
	switch {
	case strings.TrimSpace(value) == "":
		f.add(field, "is required")
	case utf8.RuneCountInString(value) > maxRunes:
		f.add(field, fmt.Sprintf("must be at most %d characters", maxRunes))
	}
}

func (f *fieldErrors) optionalText(field string, value *string, maxRunes int) {
	if value != nil && utf8.RuneCountInString(*value) > maxRunes {
		f.add(field, fmt.Sprintf("must be at most %d characters", maxRunes))
	}
}

func isEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// storeError turns a repository error into NOT_FOUND or CONFLICT when it is
// one, and wraps anything else.
func storeError(err error, resource string, id interface{}, action string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierrors.NewNotFoundError(resource, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apierrors.NewConflictError("", fmt.Sprintf("%s already exists", resource))
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

func toJSON(v map[string]interface{}) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warning("failed to encode metadata: %v", err)
		return nil
	}
	return datatypes.JSON(raw)
}
