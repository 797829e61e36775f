package models

import (
	"errors"
	"fmt"
)

// Failures returned by the store and the lifecycle manager. Callers match them
// with errors.Is; the wrapped message carries the detail.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIllegalState    = errors.New("illegal state")

	// ErrConflict is an ErrIllegalState raised when approval would overlap an
	// already approved reservation.
	ErrConflict = fmt.Errorf("%w: conflict", ErrIllegalState)
)
