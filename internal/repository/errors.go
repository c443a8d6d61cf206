package repository

import "errors"

var (
	// ErrSlotClaimed возвращается, когда ключ слота уже занят другим бронированием
	ErrSlotClaimed = errors.New("slot key already claimed")
	// ErrBookingNotFound возвращается при изменении отсутствующего бронирования
	ErrBookingNotFound = errors.New("booking not found")
	// ErrBookingNotActive возвращается при отмене уже отменённого бронирования
	ErrBookingNotActive = errors.New("booking is not active")
	// ErrRuleNotFound возвращается при изменении отсутствующего правила
	ErrRuleNotFound = errors.New("availability rule not found")
)
