// model/booking.go
package model

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingConfirmed      BookingStatus = "CONFIRMED"
	BookingExpired        BookingStatus = "EXPIRED"
	BookingCancelled      BookingStatus = "CANCELLED"
	BookingPaymentFailed  BookingStatus = "PAYMENT_FAILED"
	BookingCheckedIn      BookingStatus = "CHECKED_IN"
	BookingReturned       BookingStatus = "RETURNED"
)

type Booking struct {
	ID          int64         `json:"id"`
	Code        string        `json:"code"`
	RenterID    int64         `json:"renter_id"`
	VehicleID   int64         `json:"vehicle_id"`
	UnitID      int64         `json:"unit_id"`
	Color       string        `json:"color"`
	StationID   int64         `json:"station_id"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	PickupTime  string        `json:"pickup_time"`
	ReturnTime  string        `json:"return_time"`
	PricePerDay float64       `json:"price_per_day"`
	TotalPrice  float64       `json:"total_price"`
	Deposit     float64       `json:"deposit"`
	Status      BookingStatus `json:"status"`
	EditUsed    bool          `json:"edit_used"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// PickupInstant combines the start date with the wall-clock pickup time.
// The 24h edit window and the "start must be in the future" check are both
// measured against this instant, not the bare date.
func (b Booking) PickupInstant() (time.Time, error) {
	return combineDateTime(b.StartDate, b.PickupTime)
}

func combineDateTime(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q: %w", hhmm, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// RentalDays is the billable day count: the date span rounded up, never
// below one day.
func RentalDays(start, end time.Time) int {
	hours := end.Sub(start).Hours()
	days := int(hours / 24)
	if float64(days*24) < hours {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}
