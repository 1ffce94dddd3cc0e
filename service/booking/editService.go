package bookingsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"vehiclerental/model"
	bookingrepo "vehiclerental/repository/booking"
	inventoryrepo "vehiclerental/repository/inventory"
)

// editWindow: edits close this long before the pickup instant. Exactly at
// the boundary is still allowed.
const editWindow = 24 * time.Hour

type EditTerms struct {
	VehicleID   int64
	Model       string
	Color       string
	StationID   int64
	StartDate   time.Time
	EndDate     time.Time
	PickupTime  string
	ReturnTime  string
	PricePerDay float64
	Reason      string
}

// EditOutcome either carries the updated booking, or a ranked list of
// substitutes when the requested vehicle was unavailable. In the second
// case the booking is untouched and the edit allowance is not consumed.
type EditOutcome struct {
	Booking *model.Booking           `json:"booking,omitempty"`
	Offers  []model.AlternativeOffer `json:"offers,omitempty"`
	Reason  string                   `json:"reason,omitempty"`
}

func (s *service) Edit(ctx context.Context, renterID int64, code string, terms EditTerms) (*EditOutcome, error) {
	if err := validateEdit(terms); err != nil {
		return nil, err
	}

	b, err := s.Get(ctx, renterID, code)
	if err != nil {
		return nil, err
	}
	if err := s.editLegal(b); err != nil {
		return nil, err
	}

	unit, err := s.reserveOneUnit(ctx, CreateReq{
		VehicleID: terms.VehicleID,
		Model:     terms.Model,
		Color:     terms.Color,
		StationID: terms.StationID,
		StartDate: terms.StartDate,
		EndDate:   terms.EndDate,
	})
	if err != nil {
		if Code(err) == ErrVehicleUnavailable {
			return s.proposeAlternatives(ctx, terms, err.Error())
		}
		return nil, err
	}

	oldUnit := b.UnitID
	total := terms.PricePerDay * float64(model.RentalDays(terms.StartDate, terms.EndDate))

	updated, err := s.applyEdit(ctx, renterID, code, unit, terms, total)
	if err != nil {
		s.releaseQuietly(ctx, unit.UnitID)
		return nil, err
	}
	if oldUnit != unit.UnitID {
		s.releaseQuietly(ctx, oldUnit)
	}
	return &EditOutcome{Booking: updated}, nil
}

func (s *service) applyEdit(ctx context.Context, renterID int64, code string, unit model.UnitOption, terms EditTerms, total float64) (b *model.Booking, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err = s.r.GetByCodeForUpdate(ctx, tx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound, code)
		}
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, makeErr(ErrNotOwner, "")
	}
	// Re-check under lock; the window or the flag may have moved since
	// the unlocked read.
	if err = s.editLegal(b); err != nil {
		return nil, err
	}

	fields := bookingrepo.EditFields{
		VehicleID:   unit.VehicleID,
		UnitID:      unit.UnitID,
		Color:       unit.Color,
		StationID:   terms.StationID,
		StartDate:   terms.StartDate,
		EndDate:     terms.EndDate,
		PickupTime:  terms.PickupTime,
		ReturnTime:  terms.ReturnTime,
		PricePerDay: terms.PricePerDay,
		TotalPrice:  total,
	}
	if err = s.r.ApplyEdit(ctx, tx, b.ID, fields); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	b.VehicleID = unit.VehicleID
	b.UnitID = unit.UnitID
	b.Color = unit.Color
	b.StationID = terms.StationID
	b.StartDate = terms.StartDate
	b.EndDate = terms.EndDate
	b.PickupTime = terms.PickupTime
	b.ReturnTime = terms.ReturnTime
	b.PricePerDay = terms.PricePerDay
	b.TotalPrice = total
	b.EditUsed = true
	return b, nil
}

func (s *service) editLegal(b *model.Booking) error {
	if b.Status != model.BookingConfirmed {
		return makeErr(ErrEditNotAllowed, "booking is "+string(b.Status))
	}
	if b.EditUsed {
		return makeErr(ErrEditNotAllowed, "edit already used")
	}
	pickup, err := b.PickupInstant()
	if err != nil {
		return err
	}
	if pickup.Sub(s.clk.Now()) < editWindow {
		return makeErr(ErrEditNotAllowed, "less than 24h before pickup")
	}
	return nil
}

// proposeAlternatives: the requested vehicle could not be reserved, so
// offer whatever else the station still has, never a bare failure.
func (s *service) proposeAlternatives(ctx context.Context, terms EditTerms, reason string) (*EditOutcome, error) {
	// Model left empty on purpose: the requested model is out, list
	// everything still standing at the station.
	options, err := s.inv.CheckAvailability(ctx, inventoryrepo.AvailabilityQuery{
		StationID: terms.StationID,
		StartDate: terms.StartDate,
		EndDate:   terms.EndDate,
	})
	if err != nil {
		return nil, err
	}

	var offers []model.AlternativeOffer
	for _, opt := range options {
		if opt.AvailableCount < 1 {
			continue
		}
		offers = append(offers, model.AlternativeOffer{
			VehicleID:      opt.VehicleID,
			UnitID:         opt.UnitID,
			Model:          opt.Model,
			Color:          opt.Color,
			PricePerDay:    opt.PricePerDay,
			AvailableCount: opt.AvailableCount,
		})
	}
	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].PricePerDay != offers[j].PricePerDay {
			return offers[i].PricePerDay < offers[j].PricePerDay
		}
		return offers[i].AvailableCount > offers[j].AvailableCount
	})

	// An empty list is a valid answer: the caller must be told no
	// substitute exists.
	return &EditOutcome{Offers: offers, Reason: reason}, nil
}

func validateEdit(t EditTerms) error {
	switch {
	case t.VehicleID <= 0 && t.Model == "":
		return makeErr(ErrValidation, "vehicle is required")
	case t.StationID <= 0:
		return makeErr(ErrValidation, "station is required")
	case t.StartDate.IsZero() || t.EndDate.IsZero():
		return makeErr(ErrValidation, "start and end date are required")
	case t.EndDate.Before(t.StartDate):
		return makeErr(ErrValidation, "end date before start date")
	case t.PickupTime == "" || t.ReturnTime == "":
		return makeErr(ErrValidation, "pickup and return time are required")
	case t.PricePerDay <= 0:
		return makeErr(ErrValidation, fmt.Sprintf("bad price per day %v", t.PricePerDay))
	}
	return nil
}
