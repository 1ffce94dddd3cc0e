// model/offer.go
package model

// UnitOption is one reservable unit reported by the inventory service.
type UnitOption struct {
	UnitID         int64   `json:"unit_id"`
	VehicleID      int64   `json:"vehicle_id"`
	Model          string  `json:"model"`
	Color          string  `json:"color"`
	PricePerDay    float64 `json:"price_per_day"`
	AvailableCount int     `json:"available_count"`
}

// AlternativeOffer is a proposed substitute returned when an edit's target
// is unavailable. Lives only for the duration of one edit negotiation.
type AlternativeOffer struct {
	VehicleID      int64   `json:"vehicle_id"`
	UnitID         int64   `json:"unit_id"`
	Model          string  `json:"model"`
	Color          string  `json:"color"`
	PricePerDay    float64 `json:"price_per_day"`
	AvailableCount int     `json:"available_count"`
}
