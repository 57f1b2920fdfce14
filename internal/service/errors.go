package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. Typed errors below unwrap to these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
	Detail  string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports that no record exists for the given id.
type NotFoundError struct {
	Entity  string
	ID      string
	Message string // overrides the generated message when set
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a duplicate unique field.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// AuthError reports bad credentials or an unusable token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

// ForbiddenError reports an authenticated caller lacking the required role.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// Messages shared between services, handlers and tests.
const (
	MsgQuoteRequiredFields = "Quote must have text and author"
	MsgNoQuotes            = "No quotes available"
	MsgUserExists          = "User with this email or username already exists"
	MsgInvalidCredentials  = "Invalid email or password"
	MsgInvalidToken        = "Invalid token"
	MsgUserNotFound        = "User not found"
)

var (
	// ErrInvalidCredentials is returned by Login for unknown emails and wrong passwords alike
	ErrInvalidCredentials = &AuthError{Message: MsgInvalidCredentials}
	ErrUserAlreadyExists  = &ConflictError{Message: MsgUserExists}
)
