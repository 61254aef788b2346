package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates that user with this username already exists
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken indicates that user with this email already exists
	ErrEmailTaken = errors.New("email already taken")

	// ErrTokenNotFound indicates that refresh token was not found
	// or did not match the stored value
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrResetTokenNotFound indicates that reset code was not found,
	// already consumed, or expired
	ErrResetTokenNotFound = errors.New("reset token not found")
)
