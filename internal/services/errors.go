package services

import (
	"errors"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// a referenced user or transaction does not exist
	ErrUnknownReference = errors.New("unknown reference")
)

// ValidationError lists the request fields that failed.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func requiredFields(fields ...string) string {
	return "Campos requeridos: " + strings.Join(fields, ", ")
}
