package errs

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input data is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when credentials or tokens are rejected
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when an authenticated user may not act
	ErrForbidden = errors.New("forbidden")

	// ErrUpstreamUnavailable is returned when the NASA service cannot be reached
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
