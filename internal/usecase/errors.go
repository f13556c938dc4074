package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrQuotaExceeded         = errors.New("generation quota exceeded")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
