package domain

import "errors"

var (
	// ErrInvalidInput indicates a required field was empty or zero.
	ErrInvalidInput = errors.New("invalid input parameters")
	// ErrUserNotFound indicates the referenced user has no stored profile.
	ErrUserNotFound = errors.New("user not found")
	// ErrActivityNotFound indicates the named activity type is not in the catalog.
	ErrActivityNotFound = errors.New("activity type not found")
	// ErrFactorNotFound indicates no environmental factor matched the lookup.
	ErrFactorNotFound = errors.New("environmental factors not found")
	// ErrBenchmarkNotFound indicates no benchmark is stored for the user.
	ErrBenchmarkNotFound = errors.New("benchmark data not found")
	// ErrDuplicateUsername indicates a registration conflict.
	ErrDuplicateUsername = errors.New("username already taken")
)
