package recordings

import "errors"

var (
	ErrNotFound     = errors.New("recording not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotCompleted = errors.New("analysis not completed")
)
