package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("already exists")
	ErrCredentialsMissing  = errors.New("credentials missing")
	ErrSessionExpired      = errors.New("session expired, restart the flow")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type PlatformErrorKind string

const (
	PlatformErrorNetwork  PlatformErrorKind = "network"
	PlatformErrorRejected PlatformErrorKind = "rejected"
	PlatformErrorTimeout  PlatformErrorKind = "timeout"
)

// PlatformError is a classified adapter failure.
type PlatformError struct {
	Platform   string
	Kind       PlatformErrorKind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *PlatformError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s %s (status %d): %s", e.Platform, e.Op, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s %s: %s", e.Platform, e.Op, e.Kind, msg)
}

func (e *PlatformError) Unwrap() error { return e.Err }

func NewNetworkError(platform, op string, err error) error {
	return &PlatformError{Platform: platform, Kind: PlatformErrorNetwork, Op: op, Err: err}
}

func NewRejectedError(platform, op string, status int, message string) error {
	return &PlatformError{Platform: platform, Kind: PlatformErrorRejected, Op: op, StatusCode: status, Message: message}
}

func NewTimeoutError(platform, op, message string) error {
	return &PlatformError{Platform: platform, Kind: PlatformErrorTimeout, Op: op, Message: message}
}

// OAuthError is the single classified failure of a token exchange.
type OAuthError struct {
	Platform string
	Step     string
	Message  string
	Err      error
}

func (e *OAuthError) Error() string {
	return fmt.Sprintf("%s oauth %s failed: %s", e.Platform, e.Step, e.Message)
}

func (e *OAuthError) Unwrap() error { return e.Err }
