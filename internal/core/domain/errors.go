package domain

import "errors"

var (
	// ErrUserExists is returned when registering a username that is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no account matches the username.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on a failed password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation wraps all preference/subject/field validation failures.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientTokens is returned when the balance cannot cover a turn.
	ErrInsufficientTokens = errors.New("insufficient tokens")
	// ErrGeneration wraps any failure of the generation service. The paired
	// debit has already been refunded when this error surfaces.
	ErrGeneration = errors.New("generation failed")
	// ErrStoreUnavailable indicates the persistence layer could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDuplicateRequest is returned when an Idempotency-Key is replayed.
	ErrDuplicateRequest = errors.New("duplicate request")
)
