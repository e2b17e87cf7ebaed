package storage

import (
	"errors"
)

// Sentinel kinds for storage errors.
var (
	ErrNotFound      = errors.New("schedule not found")
	ErrAlreadyExists = errors.New("schedule already exists")
	ErrOpenStore     = errors.New("open schedule store failed")
)
