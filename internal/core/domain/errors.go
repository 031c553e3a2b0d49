package domain

import "errors"

// Sentinel errors shared by the service, the adapters and the HTTP layer.
// The error handler maps each one to a fixed status code.
var (
	ErrValidation                 = errors.New("validation failed")
	ErrDuplicateEmail             = errors.New("email already registered")
	ErrInvalidCredentials         = errors.New("invalid credentials")
	ErrIncorrectCurrentCredential = errors.New("current password is incorrect")
	ErrUnauthenticated            = errors.New("unauthenticated")
	ErrForbidden                  = errors.New("access forbidden")
	ErrUserNotFound               = errors.New("user not found")
	ErrStoreUnavailable           = errors.New("user store unavailable")
	ErrPublishQueueFull           = errors.New("event queue full")
)

// Token verification failures. All of them surface as 401 to callers.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenUnknown   = errors.New("token verification failed")
)
