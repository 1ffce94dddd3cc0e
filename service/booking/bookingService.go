package bookingsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vehiclerental/model"
	bookingrepo "vehiclerental/repository/booking"
	inventoryrepo "vehiclerental/repository/inventory"
	midtransrepo "vehiclerental/repository/midtrans"
	verificationrepo "vehiclerental/repository/verification"
	"vehiclerental/service/lifecycle"
	"vehiclerental/util/clock"
)

// errors used by controllers

type ErrCode string

const (
	ErrValidation         ErrCode = "VALIDATION"
	ErrVerification       ErrCode = "VERIFICATION_NOT_APPROVED"
	ErrVehicleUnavailable ErrCode = "VEHICLE_UNAVAILABLE"
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrNotOwner           ErrCode = "NOT_OWNER"
	ErrEditNotAllowed     ErrCode = "EDIT_NOT_ALLOWED"
	ErrAlreadyResolved    ErrCode = "ALREADY_RESOLVED"
)

type codedError struct {
	code   ErrCode
	detail string
}

func (e codedError) Error() string {
	if e.detail == "" {
		return string(e.code)
	}
	return string(e.code) + ": " + e.detail
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode, detail string) error { return codedError{code: c, detail: detail} }

// Code extracts the error code for transport mapping.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type CreateReq struct {
	VehicleID   int64
	Model       string
	Color       string
	StationID   int64
	StartDate   time.Time
	EndDate     time.Time
	PickupTime  string
	ReturnTime  string
	PricePerDay float64
	Deposit     float64
}

type Created struct {
	Booking      model.Booking
	PaymentURL   string
	PaymentDueAt time.Time
}

type Service interface {
	// Create: gate on verification, hold one unit and open a payment
	// session (booking lands in PENDING_PAYMENT).
	Create(ctx context.Context, renterID int64, req CreateReq) (*Created, error)

	// Edit: the one-shot post-confirmation renegotiation, see editService.go.
	Edit(ctx context.Context, renterID int64, code string, terms EditTerms) (*EditOutcome, error)

	// CheckIn / Return: terminal pickup and drop-off transitions.
	CheckIn(ctx context.Context, renterID int64, code string) (*model.Booking, error)
	Return(ctx context.Context, renterID int64, code string) (*model.Booking, error)

	Get(ctx context.Context, renterID int64, code string) (*model.Booking, error)
	ListMine(ctx context.Context, renterID int64) ([]model.Booking, error)
}

type service struct {
	db  *sql.DB
	r   bookingrepo.Repo
	inv inventoryrepo.Repo
	ver verificationrepo.Repo
	pay midtransrepo.Repo
	clk clock.Clock
}

func New(db *sql.DB, r bookingrepo.Repo, inv inventoryrepo.Repo, ver verificationrepo.Repo, pay midtransrepo.Repo, clk clock.Clock) Service {
	return &service{db: db, r: r, inv: inv, ver: ver, pay: pay, clk: clk}
}

func (s *service) Create(ctx context.Context, renterID int64, req CreateReq) (*Created, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	pickup, err := model.Booking{StartDate: req.StartDate, PickupTime: req.PickupTime}.PickupInstant()
	if err != nil {
		return nil, makeErr(ErrValidation, err.Error())
	}
	if !pickup.After(now) {
		return nil, makeErr(ErrValidation, "pickup must be in the future")
	}

	status, err := s.ver.GetStatus(ctx, renterID)
	if err != nil {
		return nil, err
	}
	if status != model.VerificationApproved {
		return nil, makeErr(ErrVerification, string(status))
	}

	total := req.PricePerDay * float64(model.RentalDays(req.StartDate, req.EndDate))

	unit, err := s.reserveOneUnit(ctx, req)
	if err != nil {
		return nil, err
	}

	code := "VR-" + uuid.NewString()
	payment, err := s.pay.CreateTransaction(ctx, midtransrepo.CreateTransactionReq{
		OrderRef:    code,
		GrossAmount: total,
		RenterID:    renterID,
	})
	if err != nil {
		s.releaseQuietly(ctx, unit.UnitID)
		return nil, err
	}

	b := &model.Booking{
		Code:        code,
		RenterID:    renterID,
		VehicleID:   unit.VehicleID,
		UnitID:      unit.UnitID,
		Color:       unit.Color,
		StationID:   req.StationID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		PickupTime:  req.PickupTime,
		ReturnTime:  req.ReturnTime,
		PricePerDay: req.PricePerDay,
		TotalPrice:  total,
		Deposit:     req.Deposit,
		Status:      model.BookingPendingPayment,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.releaseQuietly(ctx, unit.UnitID)
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			s.releaseQuietly(ctx, unit.UnitID)
		}
	}()

	if err = s.r.InsertBooking(ctx, tx, b); err != nil {
		return nil, err
	}
	hold := &model.Hold{
		BookingID: b.ID,
		UnitID:    unit.UnitID,
		CreatedAt: now,
		ExpiresAt: now.Add(model.HoldTTL),
	}
	if err = s.r.InsertHold(ctx, tx, hold); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &Created{
		Booking:      *b,
		PaymentURL:   payment.RedirectURL,
		PaymentDueAt: hold.ExpiresAt,
	}, nil
}

// reserveOneUnit finds a unit matching the requested model/color at the
// station and claims it. Units that get snatched between the availability
// read and the reserve call are skipped; exactly one reservation sticks.
func (s *service) reserveOneUnit(ctx context.Context, req CreateReq) (model.UnitOption, error) {
	options, err := s.inv.CheckAvailability(ctx, inventoryrepo.AvailabilityQuery{
		Model:     req.Model,
		StationID: req.StationID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		return model.UnitOption{}, err
	}

	for _, opt := range options {
		if req.Color != "" && opt.Color != req.Color {
			continue
		}
		if opt.AvailableCount < 1 {
			continue
		}
		err := s.inv.Reserve(ctx, opt.UnitID)
		if err == nil {
			return opt, nil
		}
		if errors.Is(err, inventoryrepo.ErrUnitUnavailable) {
			continue
		}
		return model.UnitOption{}, err
	}
	return model.UnitOption{}, makeErr(ErrVehicleUnavailable,
		fmt.Sprintf("no %s %s at station %d", req.Color, req.Model, req.StationID))
}

func (s *service) releaseQuietly(ctx context.Context, unitID int64) {
	// Best effort; release is idempotent on the fleet side and the sweep
	// never sees this unit because no hold was persisted.
	_ = s.inv.Release(ctx, unitID)
}

func validateCreate(req CreateReq) error {
	switch {
	case req.VehicleID <= 0 && req.Model == "":
		return makeErr(ErrValidation, "vehicle is required")
	case req.StationID <= 0:
		return makeErr(ErrValidation, "station is required")
	case req.StartDate.IsZero() || req.EndDate.IsZero():
		return makeErr(ErrValidation, "start and end date are required")
	case req.EndDate.Before(req.StartDate):
		return makeErr(ErrValidation, "end date before start date")
	case req.PickupTime == "" || req.ReturnTime == "":
		return makeErr(ErrValidation, "pickup and return time are required")
	case req.PricePerDay <= 0:
		return makeErr(ErrValidation, "price per day must be positive")
	}
	return nil
}

func (s *service) Get(ctx context.Context, renterID int64, code string) (*model.Booking, error) {
	b, err := s.r.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound, code)
		}
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, makeErr(ErrNotOwner, "")
	}
	return b, nil
}

func (s *service) ListMine(ctx context.Context, renterID int64) ([]model.Booking, error) {
	return s.r.ListByRenter(ctx, renterID)
}

func (s *service) CheckIn(ctx context.Context, renterID int64, code string) (*model.Booking, error) {
	return s.transition(ctx, renterID, code, model.BookingConfirmed, model.BookingCheckedIn)
}

func (s *service) Return(ctx context.Context, renterID int64, code string) (*model.Booking, error) {
	return s.transition(ctx, renterID, code, model.BookingCheckedIn, model.BookingReturned)
}

func (s *service) transition(ctx context.Context, renterID int64, code string, from, to model.BookingStatus) (b *model.Booking, err error) {
	if err := lifecycle.Next(from, to); err != nil {
		return nil, err
	}

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
	if b.Status != from {
		return nil, makeErr(ErrAlreadyResolved, string(b.Status))
	}

	moved, err := s.r.UpdateStatusFrom(ctx, tx, b.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, makeErr(ErrAlreadyResolved, string(b.Status))
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	b.Status = to
	return b, nil
}
