package auth

import "errors"

// Failures surfaced to the request layer. Messages never include secrets.
var (
	// ErrInvalidInput indicates a malformed registration or login payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateUsername indicates the requested username is taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrAuthenticationFailed covers both unknown users and wrong passwords.
	ErrAuthenticationFailed = errors.New("invalid username or password")

	// ErrUnauthenticated indicates a missing or invalid token.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden indicates a valid identity without rights to the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound indicates a user that should exist does not.
	ErrUserNotFound = errors.New("user not found")

	// ErrMessageNotFound indicates an unknown message id.
	ErrMessageNotFound = errors.New("message not found")
)
