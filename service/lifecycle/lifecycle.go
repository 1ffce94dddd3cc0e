// Package lifecycle is the canonical booking state machine. Every service
// that moves a booking consults this table; anything outside it is a bug,
// not a business-rule failure.
package lifecycle

import (
	"errors"

	"vehiclerental/model"
)

var ErrInvalidTransition = errors.New("invalid booking transition")

var allowed = map[model.BookingStatus]map[model.BookingStatus]bool{
	model.BookingPendingPayment: {
		model.BookingConfirmed:     true,
		model.BookingExpired:       true,
		model.BookingCancelled:     true,
		model.BookingPaymentFailed: true,
	},
	model.BookingConfirmed: {
		model.BookingCheckedIn: true,
	},
	model.BookingCheckedIn: {
		model.BookingReturned: true,
	},
}

// Next reports whether from -> to is a legal transition. No transition may
// move a booking backward or skip from pending payment to checked in.
func Next(from, to model.BookingStatus) error {
	if !allowed[from][to] {
		return ErrInvalidTransition
	}
	return nil
}

func IsTerminal(s model.BookingStatus) bool {
	switch s {
	case model.BookingExpired, model.BookingCancelled,
		model.BookingPaymentFailed, model.BookingReturned:
		return true
	}
	return false
}
