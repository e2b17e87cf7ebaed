package input

import (
	"errors"
)

// Sentinel kinds for input backend errors.
var (
	ErrClosed     = errors.New("input backend closed")
	ErrOpenDevice = errors.New("open input device failed")
	ErrNoTerminal = errors.New("stdin is not a terminal")
)
