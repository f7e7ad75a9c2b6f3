package submissions

import "errors"

var (
	ErrNotFound     = errors.New("submission not found")
	ErrInvalidInput = errors.New("invalid input")
)
