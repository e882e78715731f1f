package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// UserErrors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
)

// Loan lifecycle errors. Callers branch on these with errors.Is; every
// rejected transition surfaces one of them, never a generic failure.
var (
	ErrLoanNotFound        = errors.New("loan not found")
	ErrBookNotFound        = errors.New("book not found")
	ErrAlreadyBorrowed     = errors.New("book already has an open loan")
	ErrInvalidTransition   = errors.New("invalid loan state transition")
	ErrExtensionNotAllowed = errors.New("loan extension not allowed")
	ErrNoFineDue           = errors.New("no fine due on this loan")
	ErrStoreUnavailable    = errors.New("loan store unavailable")
)
