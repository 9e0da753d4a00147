package property

import "fmt"

// ValidationCode discriminates the validation failure modes.
type ValidationCode string

const (
	CodeMissingField    ValidationCode = "MISSING_FIELD"
	CodeInvalidName     ValidationCode = "INVALID_NAME"
	CodeInvalidNumber   ValidationCode = "INVALID_NUMBER"
	CodeOutOfRange      ValidationCode = "OUT_OF_RANGE"
	CodeInvalidGeometry ValidationCode = "INVALID_GEOMETRY"
	CodeInvalidType     ValidationCode = "INVALID_TYPE"
	CodeTooLong         ValidationCode = "TOO_LONG"
	CodeEmptyUpdate     ValidationCode = "EMPTY_UPDATE"
)

// ValidationError is the discriminated result of a failed validation.
// Reason is the human-readable message surfaced to the caller.
type ValidationError struct {
	Code   ValidationCode
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func missingField(field string) *ValidationError {
	return &ValidationError{
		Code:   CodeMissingField,
		Field:  field,
		Reason: fmt.Sprintf("missing required field: %s", field),
	}
}

func invalidName() *ValidationError {
	return &ValidationError{
		Code:   CodeInvalidName,
		Field:  "name",
		Reason: "name must be between 2 and 100 characters",
	}
}

func invalidNumber(field string) *ValidationError {
	return &ValidationError{
		Code:   CodeInvalidNumber,
		Field:  field,
		Reason: fmt.Sprintf("%s must be a valid number", field),
	}
}

func outOfRange(field, reason string) *ValidationError {
	return &ValidationError{
		Code:   CodeOutOfRange,
		Field:  field,
		Reason: reason,
	}
}

func invalidGeometry() *ValidationError {
	return &ValidationError{
		Code:   CodeInvalidGeometry,
		Field:  "coordinates",
		Reason: "invalid coordinates",
	}
}

func invalidType() *ValidationError {
	return &ValidationError{
		Code:   CodeInvalidType,
		Field:  "type",
		Reason: "invalid property type: must be one of farm, smallholding, ranchette, vacant_lot, other",
	}
}

func descriptionTooLong() *ValidationError {
	return &ValidationError{
		Code:   CodeTooLong,
		Field:  "description",
		Reason: "description must be at most 500 characters",
	}
}

func emptyUpdate() *ValidationError {
	return &ValidationError{
		Code:   CodeEmptyUpdate,
		Reason: "at least one field must be provided for update",
	}
}
