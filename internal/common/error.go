// Package common defines shared constants and sentinel errors used across
// the booktag server, its repositories and transports. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// QR code registry errors.
	ErrInvalidCode       = errors.New("invalid qr code")
	ErrDuplicateCode     = errors.New("qr code already exists")
	ErrAlreadyRegistered = errors.New("qr code already registered")
	ErrInvalidOwner      = errors.New("owner name and email are required")
	ErrInvalidBatch      = errors.New("invalid qr code batch")

	// User errors.
	ErrDuplicateEmail = errors.New("email already in use")

	// Verification code lifecycle errors.
	ErrNoCodeOutstanding = errors.New("no verification code outstanding")
	ErrCodeExpired       = errors.New("verification code expired")
	ErrCodeMismatch      = errors.New("verification code mismatch")
	ErrTooManyAttempts   = errors.New("too many verification attempts")
)
