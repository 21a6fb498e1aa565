package models

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// Sentinel validation failures raised by the domain model.
var (
	ErrInvalidStatus   = &ValidationError{Field: "status", Code: "invalid_status"}
	ErrNameRequired    = &ValidationError{Field: "name", Code: "required"}
	ErrClientRequired  = &ValidationError{Field: "client_id", Code: "required"}
	ErrInvalidDiscount = &ValidationError{Field: "discount_kind", Code: "invalid_discount"}
)

// ValidationError reports a rejected input. The entity it was applied to is
// left unchanged.
type ValidationError struct {
	Field string
	Code  string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Field, e.Code, e.Value)
	}
	return e.Field + ": " + e.Code
}

// Is lets errors.Is match both ErrValidation and a sentinel with the same
// field and code, whatever the offending value.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Field == e.Field && t.Code == e.Code
}

func invalid(sentinel *ValidationError, value string) error {
	return &ValidationError{Field: sentinel.Field, Code: sentinel.Code, Value: value}
}
