package booking

import (
	"time"

	bs "vehiclerental/service/booking"
)

type CreateBookingReq struct {
	VehicleID   int64   `json:"vehicle_id" validate:"omitempty,gt=0"`
	Model       string  `json:"model" validate:"required"`
	Color       string  `json:"color"`
	StationID   int64   `json:"station_id" validate:"required,gt=0"`
	StartDate   string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	PickupTime  string  `json:"pickup_time" validate:"required,datetime=15:04"`
	ReturnTime  string  `json:"return_time" validate:"required,datetime=15:04"`
	PricePerDay float64 `json:"price_per_day" validate:"required,gt=0"`
	Deposit     float64 `json:"deposit" validate:"gte=0"`
}

type EditBookingReq struct {
	VehicleID   int64   `json:"vehicle_id" validate:"omitempty,gt=0"`
	Model       string  `json:"model" validate:"required"`
	Color       string  `json:"color"`
	StationID   int64   `json:"station_id" validate:"required,gt=0"`
	StartDate   string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	PickupTime  string  `json:"pickup_time" validate:"required,datetime=15:04"`
	ReturnTime  string  `json:"return_time" validate:"required,datetime=15:04"`
	PricePerDay float64 `json:"price_per_day" validate:"required,gt=0"`
	Reason      string  `json:"reason"`
}

func (r CreateBookingReq) toService() (bs.CreateReq, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return bs.CreateReq{}, err
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return bs.CreateReq{}, err
	}
	return bs.CreateReq{
		VehicleID:   r.VehicleID,
		Model:       r.Model,
		Color:       r.Color,
		StationID:   r.StationID,
		StartDate:   start,
		EndDate:     end,
		PickupTime:  r.PickupTime,
		ReturnTime:  r.ReturnTime,
		PricePerDay: r.PricePerDay,
		Deposit:     r.Deposit,
	}, nil
}

func (r EditBookingReq) toService() (bs.EditTerms, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return bs.EditTerms{}, err
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return bs.EditTerms{}, err
	}
	return bs.EditTerms{
		VehicleID:   r.VehicleID,
		Model:       r.Model,
		Color:       r.Color,
		StationID:   r.StationID,
		StartDate:   start,
		EndDate:     end,
		PickupTime:  r.PickupTime,
		ReturnTime:  r.ReturnTime,
		PricePerDay: r.PricePerDay,
		Reason:      r.Reason,
	}, nil
}
