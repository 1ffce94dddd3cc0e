// model/hold.go
package model

import "time"

// HoldTTL is the payment window. After this the sweep releases the unit.
const HoldTTL = 15 * time.Minute

type HoldReleaseReason string

const (
	// ReleaseConfirmed: payment succeeded, the unit stays with the booking.
	ReleaseConfirmed HoldReleaseReason = "CONFIRMED"
	ReleaseExpired   HoldReleaseReason = "EXPIRED"
	ReleaseCancelled HoldReleaseReason = "CANCELLED"
	ReleaseFailed    HoldReleaseReason = "PAYMENT_FAILED"
)

// Hold is the time-boxed claim on one vehicle unit while a booking sits in
// PENDING_PAYMENT. At most one active hold exists per booking, and its unit
// reservation is released exactly once.
type Hold struct {
	ID            int64              `json:"id"`
	BookingID     int64              `json:"booking_id"`
	UnitID        int64              `json:"unit_id"`
	CreatedAt     time.Time          `json:"created_at"`
	ExpiresAt     time.Time          `json:"expires_at"`
	Released      bool               `json:"released"`
	ReleaseReason *HoldReleaseReason `json:"release_reason,omitempty"`
}
