package services

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidCrowdLevel = errors.New("invalid crowd level")
	ErrMissingField      = errors.New("missing required field")
)
