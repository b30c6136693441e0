package chatter_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotOwner           = errors.New("not the author of this message")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmptyContent       = errors.New("content is empty")
	ErrContentTooLong     = errors.New("content exceeds maximum length")
	ErrThreadDeleted      = errors.New("thread has been deleted")
	ErrReplyLimitReached  = errors.New("thread reply limit reached")
	ErrAlreadyExists      = errors.New("already exists")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// IsValidation reports whether err belongs to the validation family,
// i.e. the request was rejected before any state changed.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrReplyLimitReached)
}

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
