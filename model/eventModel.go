// model/event.go
package model

type EventType string

const (
	EventBookingConfirmed EventType = "booking_confirmed"
	EventBookingCancelled EventType = "booking_cancelled"
	EventBookingExpired   EventType = "booking_expired"
	EventPaymentFailed    EventType = "payment_failed"
)

// BookingEvent is published on every committed lifecycle transition so a
// notification surface can pick it up. Delivery is fire-and-forget.
type BookingEvent struct {
	Type        EventType `json:"type"`
	BookingCode string    `json:"booking_code"`
	Message     string    `json:"message"`
	Amount      float64   `json:"amount"`
}
