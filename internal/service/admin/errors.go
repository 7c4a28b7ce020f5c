package admin

import (
	"errors"
)

var (
	ErrEventConflict   = errors.New("event already exists")
	ErrBookingNotFound = errors.New("booking not found")
)
