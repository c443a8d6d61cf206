package service

import "errors"

var (
	ErrRuleNotFound      = errors.New("availability rule not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSlotNotFound      = errors.New("slot is no longer available")
	ErrForbidden         = errors.New("forbidden")
	ErrSlotAlreadyBooked = errors.New("slot already booked")
	ErrRuleOverlap       = errors.New("rule overlaps an existing active rule")
	ErrBookingNotActive  = errors.New("booking is already canceled")
	ErrInvalidRange      = errors.New("invalid date range")
)
