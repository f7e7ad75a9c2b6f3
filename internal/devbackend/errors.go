package devbackend

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidFormat = errors.New("unsupported image format")
	ErrTooLarge      = errors.New("image too large")
)
