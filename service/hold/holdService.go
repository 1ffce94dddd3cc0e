package holdsvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"vehiclerental/model"
	bookingrepo "vehiclerental/repository/booking"
	inventoryrepo "vehiclerental/repository/inventory"
	"vehiclerental/service/notify"
	"vehiclerental/util/clock"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrAlreadyResolved ErrCode = "ALREADY_RESOLVED"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	// Cancel: renter-initiated, only while the booking still waits for
	// payment. Anything later answers ALREADY_RESOLVED.
	Cancel(ctx context.Context, renterID int64, code string) (*model.Booking, error)

	// ExpireSweep resolves every overdue hold. Safe to run concurrently
	// and repeatedly; a hold already handled is a no-op.
	ExpireSweep(ctx context.Context) (int, error)

	// Run loops ExpireSweep on a timer until ctx is cancelled.
	Run(ctx context.Context, interval time.Duration)
}

type service struct {
	db  *sql.DB
	r   bookingrepo.Repo
	inv inventoryrepo.Repo
	n   *notify.Notifier
	clk clock.Clock
	log *slog.Logger
}

func New(db *sql.DB, r bookingrepo.Repo, inv inventoryrepo.Repo, n *notify.Notifier, clk clock.Clock, log *slog.Logger) Service {
	return &service{db: db, r: r, inv: inv, n: n, clk: clk, log: log}
}

func (s *service) Cancel(ctx context.Context, renterID int64, code string) (*model.Booking, error) {
	b, unitID, err := s.resolve(ctx, code, model.BookingCancelled, model.ReleaseCancelled, &renterID)
	if err != nil {
		return nil, err
	}

	s.releaseUnit(ctx, unitID, b.Code)
	s.n.Emit(model.BookingEvent{
		Type:        model.EventBookingCancelled,
		BookingCode: b.Code,
		Message:     "booking cancelled, unit released",
		Amount:      b.TotalPrice,
	})
	return b, nil
}

// resolve commits one PENDING_PAYMENT -> to transition together with its
// hold release. The status compare-and-swap decides the race against the
// payment callback; whoever loses gets ALREADY_RESOLVED and changes
// nothing. The unit release happens after commit so no external call runs
// inside the transaction.
func (s *service) resolve(ctx context.Context, code string, to model.BookingStatus, reason model.HoldReleaseReason, owner *int64) (b *model.Booking, unitID int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err = s.r.GetByCodeForUpdate(ctx, tx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, makeErr(ErrNotFound)
		}
		return nil, 0, err
	}
	if owner != nil && b.RenterID != *owner {
		return nil, 0, makeErr(ErrNotOwner)
	}
	if b.Status != model.BookingPendingPayment {
		return nil, 0, makeErr(ErrAlreadyResolved)
	}

	moved, err := s.r.UpdateStatusFrom(ctx, tx, b.ID, model.BookingPendingPayment, to)
	if err != nil {
		return nil, 0, err
	}
	if !moved {
		return nil, 0, makeErr(ErrAlreadyResolved)
	}

	hold, err := s.r.GetActiveHold(ctx, tx, b.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Hold already released by whoever resolved the booking;
			// with the CAS won this should not happen.
			return nil, 0, makeErr(ErrAlreadyResolved)
		}
		return nil, 0, err
	}
	released, err := s.r.MarkHoldReleased(ctx, tx, hold.ID, reason)
	if err != nil {
		return nil, 0, err
	}
	if !released {
		return nil, 0, makeErr(ErrAlreadyResolved)
	}
	if err = tx.Commit(); err != nil {
		return nil, 0, err
	}

	b.Status = to
	return b, hold.UnitID, nil
}

func (s *service) releaseUnit(ctx context.Context, unitID int64, code string) {
	if err := s.inv.Release(ctx, unitID); err != nil {
		// Release is idempotent upstream; the next sweep of fleet
		// reconciliation picks up a leaked unit. Log and move on.
		s.log.Error("release unit", "unit_id", unitID, "booking_code", code, "err", err)
	}
}
