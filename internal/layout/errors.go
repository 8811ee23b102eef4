package layout

import (
	"errors"
	"fmt"
)

// Code classifies a rejected layout operation
type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
)

// Error is the single fault reported for a rejected operation.
// Field is the path of the offending input, e.g. "racks[2].rotation".
type Error struct {
	Code    Code
	Message string
	Field   string
	ItemID  string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation reports a malformed or out-of-range field
func Validation(field, format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an id that does not resolve in the expected scope
func NotFound(entity, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		ItemID:  id,
	}
}

// Conflict reports a state clash: slot overlap, capacity, duplicate key
func Conflict(message string, details map[string]any) *Error {
	return &Error{Code: CodeConflict, Message: message, Details: details}
}

func (e *Error) at(field, itemID string) *Error {
	if e.Field == "" {
		e.Field = field
	}
	if e.ItemID == "" {
		e.ItemID = itemID
	}
	return e
}

// AsError unwraps a layout error from err
func AsError(err error) (*Error, bool) {
	var le *Error
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// IsCode reports whether err is a layout error with the given code
func IsCode(err error, code Code) bool {
	le, ok := AsError(err)
	return ok && le.Code == code
}
