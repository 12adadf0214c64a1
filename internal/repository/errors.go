package repository

import "errors"

var (
	// ErrStaleState is returned by conditional updates when the row no longer
	// holds the expected status.
	ErrStaleState = errors.New("post state changed concurrently")

	ErrNotFound = errors.New("record not found")
)
