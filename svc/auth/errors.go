package auth

import "errors"

var (
	// ErrUserNotFound is returned when no account matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidEmail is returned when the email fails validation.
	ErrInvalidEmail = errors.New("email is invalid")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a token fails validation.
	ErrInvalidToken = errors.New("invalid access token")
)
