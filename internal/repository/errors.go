package repository

import "errors"

var (
	// ErrStaleVersion is returned when a conditional write loses a race:
	// the row's version no longer matches the caller's expected version
	ErrStaleVersion = errors.New("offer was modified concurrently")
)
