package domain

import "errors"

// AuthServiceError is an expected, user-facing authentication failure.
type AuthServiceError struct {
	Message string
}

func (e *AuthServiceError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials = &AuthServiceError{Message: "Invalid email or password"}
	ErrUserExists         = &AuthServiceError{Message: "User already exists"}
	ErrInvalidName        = &AuthServiceError{Message: "Invalid name"}
	ErrRefreshUnsupported = &AuthServiceError{Message: "Refresh token functionality not supported"}
)

var (
	ErrInvalidRefreshToken = errors.New("Invalid refresh token")
	ErrRefreshInProgress   = errors.New("refresh already in progress for this token")
	ErrUserNotFound        = errors.New("user not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidExpiry       = errors.New("invalid expiry")
)
