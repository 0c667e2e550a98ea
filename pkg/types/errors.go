package types

import "errors"

// Coercion errors raised when converting between host and repository values.
var (
	ErrUnsupportedType  = errors.New("unsupported type")
	ErrOutOfRange       = errors.New("out of range")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidValueType = errors.New("invalid value type")
)

// Resolution errors raised by the attribute adapter.
var (
	ErrNameConflict        = errors.New("name conflict")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrUnresolvedOperation = errors.New("unresolved operation")
)

// Repository errors raised by backends and passed through unchanged.
var (
	ErrPropertyNotFound      = errors.New("property not found")
	ErrItemNotFound          = errors.New("item not found")
	ErrItemExists            = errors.New("item already exists")
	ErrInvalidName           = errors.New("invalid name")
	ErrSessionClosed         = errors.New("session is logged out")
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrRepositoryUnavailable = errors.New("repository unavailable")
	ErrAlreadyAttached       = errors.New("repository is already attached")
	ErrConstraintViolation   = errors.New("constraint violation")
)
