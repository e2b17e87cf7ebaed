package stimlist

import (
	"errors"
)

// Sentinel kinds for stimulus list errors.
var (
	ErrOpenList      = errors.New("open stimulus list failed")
	ErrMissingColumn = errors.New("stimulus list missing required column")
	ErrBadRow        = errors.New("stimulus list row invalid")
)
