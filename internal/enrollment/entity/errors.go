package entity

import "errors"

// Local input errors. They are raised before any remote call is made.
var (
	ErrIncompleteCode = errors.New("verification code must be exactly 6 digits")
	ErrInvalidCell    = errors.New("a pin cell accepts a single digit")
	ErrCellOutOfRange = errors.New("pin cell index is out of range")
	ErrEmptyScannable = errors.New("scannable code is empty")
)
