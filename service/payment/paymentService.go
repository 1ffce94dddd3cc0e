package paymentsvc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"vehiclerental/model"
	bookingrepo "vehiclerental/repository/booking"
	inventoryrepo "vehiclerental/repository/inventory"
	midtransrepo "vehiclerental/repository/midtrans"
	"vehiclerental/service/notify"
)

// errors used by controllers

type ErrCode string

const (
	// ErrInvalidCallback: the result failed authentication. Logged, the
	// booking is left for the expiry sweep; never shown to the renter.
	ErrInvalidCallback ErrCode = "INVALID_CALLBACK"
	ErrUnknownOrder    ErrCode = "UNKNOWN_ORDER"
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

// Resolution is what a processed callback settled on. Applied is false for
// duplicate or late deliveries: the booking already holds its outcome and
// the stored status is simply echoed back.
type Resolution struct {
	BookingCode string              `json:"booking_code"`
	Status      model.BookingStatus `json:"status"`
	Applied     bool                `json:"applied"`
}

type Service interface {
	HandleCallback(ctx context.Context, raw []byte) (*Resolution, error)
}

type service struct {
	db  *sql.DB
	r   bookingrepo.Repo
	inv inventoryrepo.Repo
	pay midtransrepo.Repo
	n   *notify.Notifier
	log *slog.Logger
}

func New(db *sql.DB, r bookingrepo.Repo, inv inventoryrepo.Repo, pay midtransrepo.Repo, n *notify.Notifier, log *slog.Logger) Service {
	return &service{db: db, r: r, inv: inv, pay: pay, n: n, log: log}
}

func (s *service) HandleCallback(ctx context.Context, raw []byte) (*Resolution, error) {
	var res model.PaymentResult
	if err := json.Unmarshal(raw, &res); err != nil {
		s.log.Warn("payment callback: bad json", "err", err)
		return nil, makeErr(ErrInvalidCallback)
	}
	if res.OrderRef == "" || res.StatusCode == "" || res.SignatureKey == "" {
		s.log.Warn("payment callback: missing fields", "order_ref", res.OrderRef)
		return nil, makeErr(ErrInvalidCallback)
	}

	// Authentication first. A result we cannot authenticate mutates
	// nothing; if the payment is real the gateway retries with a valid
	// signature, otherwise the sweep expires the hold on schedule.
	if err := s.pay.VerifySignature(res); err != nil {
		s.log.Warn("payment callback: rejected", "order_ref", res.OrderRef, "err", err)
		return nil, makeErr(ErrInvalidCallback)
	}

	outcome := res.Outcome()
	if outcome == model.PaymentPending {
		b, err := s.lookup(ctx, res.OrderRef)
		if err != nil {
			return nil, err
		}
		return &Resolution{BookingCode: b.Code, Status: b.Status, Applied: false}, nil
	}

	return s.commit(ctx, res.OrderRef, outcome)
}

func (s *service) lookup(ctx context.Context, orderRef string) (*model.Booking, error) {
	b, err := s.r.GetByCode(ctx, orderRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUnknownOrder)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) commit(ctx context.Context, orderRef string, outcome model.PaymentOutcome) (r *Resolution, err error) {
	target, reason, event, msg := mapOutcome(outcome)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.r.GetByCodeForUpdate(ctx, tx, orderRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrUnknownOrder)
		}
		return nil, err
	}

	// Idempotency guard: a booking that already left PENDING_PAYMENT was
	// resolved by an earlier delivery of this reference, by the sweep, or
	// by the renter. Echo the committed outcome, re-transition nothing.
	if b.Status != model.BookingPendingPayment {
		_ = tx.Rollback()
		return &Resolution{BookingCode: b.Code, Status: b.Status, Applied: false}, nil
	}

	moved, err := s.r.UpdateStatusFrom(ctx, tx, b.ID, model.BookingPendingPayment, target)
	if err != nil {
		return nil, err
	}
	if !moved {
		_ = tx.Rollback()
		return &Resolution{BookingCode: b.Code, Status: b.Status, Applied: false}, nil
	}

	hold, err := s.r.GetActiveHold(ctx, tx, b.ID)
	if err != nil {
		return nil, err
	}
	if _, err = s.r.MarkHoldReleased(ctx, tx, hold.ID, reason); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	// On success the unit stays with the booking; everything else hands
	// it back to the pool.
	if outcome != model.PaymentSuccess {
		if relErr := s.inv.Release(ctx, hold.UnitID); relErr != nil {
			s.log.Error("release unit", "unit_id", hold.UnitID, "booking_code", b.Code, "err", relErr)
		}
	}

	s.n.Emit(model.BookingEvent{
		Type:        event,
		BookingCode: b.Code,
		Message:     msg,
		Amount:      b.TotalPrice,
	})

	return &Resolution{BookingCode: b.Code, Status: target, Applied: true}, nil
}

func mapOutcome(outcome model.PaymentOutcome) (model.BookingStatus, model.HoldReleaseReason, model.EventType, string) {
	switch outcome {
	case model.PaymentSuccess:
		return model.BookingConfirmed, model.ReleaseConfirmed,
			model.EventBookingConfirmed, "payment received, booking confirmed"
	case model.PaymentUserCancelled:
		return model.BookingCancelled, model.ReleaseCancelled,
			model.EventBookingCancelled, "payment cancelled, unit released"
	default:
		return model.BookingPaymentFailed, model.ReleaseFailed,
			model.EventPaymentFailed, "payment failed, unit released"
	}
}
