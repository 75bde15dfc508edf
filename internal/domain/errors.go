package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput marks caller errors such as an empty user name.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDiscountUnavailable wraps transport-level failures of the discount lookup.
	ErrDiscountUnavailable = errors.New("discount service unavailable")
	// ErrCorruptBasket is returned when a stored basket payload cannot be decoded.
	ErrCorruptBasket = errors.New("corrupt basket payload")
)
