package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by repositories. Services translate them into
// ServiceError values with HTTP status and code.
var (
	ErrStationNotFound   = errors.New("station not found")
	ErrWorksheetNotFound = errors.New("worksheet not found")
	ErrEntryNotFound     = errors.New("worksheet entry not found")
	ErrDuplicateCode     = errors.New("short code already in use")
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}
