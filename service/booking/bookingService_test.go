// service/booking/booking_service_test.go
package bookingsvc_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"vehiclerental/model"
	bookingrepo "vehiclerental/repository/booking"
	inventoryrepo "vehiclerental/repository/inventory"
	midtransrepo "vehiclerental/repository/midtrans"
	bookingsvc "vehiclerental/service/booking"
	"vehiclerental/util/clock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type repoMock struct {
	insertBookingFn func(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	getByCodeFn     func(ctx context.Context, code string) (*model.Booking, error)
	getForUpdateFn  func(ctx context.Context, tx *sql.Tx, code string) (*model.Booking, error)
	listFn          func(ctx context.Context, renterID int64) ([]model.Booking, error)
	updateStatusFn  func(ctx context.Context, tx *sql.Tx, id int64, from, to model.BookingStatus) (bool, error)
	applyEditFn     func(ctx context.Context, tx *sql.Tx, id int64, f bookingrepo.EditFields) error
	insertHoldFn    func(ctx context.Context, tx *sql.Tx, h *model.Hold) error
	getActiveHoldFn func(ctx context.Context, tx *sql.Tx, bookingID int64) (*model.Hold, error)
	listExpiredFn   func(ctx context.Context, now time.Time) ([]bookingrepo.ExpiredHoldRow, error)
	markReleasedFn  func(ctx context.Context, tx *sql.Tx, holdID int64, reason model.HoldReleaseReason) (bool, error)
}

var _ bookingrepo.Repo = (*repoMock)(nil)

func (m *repoMock) InsertBooking(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if m.insertBookingFn == nil {
		b.ID = 1
		return nil
	}
	return m.insertBookingFn(ctx, tx, b)
}
func (m *repoMock) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	if m.getByCodeFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.getByCodeFn(ctx, code)
}
func (m *repoMock) GetByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*model.Booking, error) {
	if m.getForUpdateFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.getForUpdateFn(ctx, tx, code)
}
func (m *repoMock) ListByRenter(ctx context.Context, renterID int64) ([]model.Booking, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx, renterID)
}
func (m *repoMock) UpdateStatusFrom(ctx context.Context, tx *sql.Tx, id int64, from, to model.BookingStatus) (bool, error) {
	if m.updateStatusFn == nil {
		return true, nil
	}
	return m.updateStatusFn(ctx, tx, id, from, to)
}
func (m *repoMock) ApplyEdit(ctx context.Context, tx *sql.Tx, id int64, f bookingrepo.EditFields) error {
	if m.applyEditFn == nil {
		return nil
	}
	return m.applyEditFn(ctx, tx, id, f)
}
func (m *repoMock) InsertHold(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	if m.insertHoldFn == nil {
		h.ID = 1
		return nil
	}
	return m.insertHoldFn(ctx, tx, h)
}
func (m *repoMock) GetActiveHold(ctx context.Context, tx *sql.Tx, bookingID int64) (*model.Hold, error) {
	if m.getActiveHoldFn == nil {
		return nil, sql.ErrNoRows
	}
	return m.getActiveHoldFn(ctx, tx, bookingID)
}
func (m *repoMock) ListExpiredHolds(ctx context.Context, now time.Time) ([]bookingrepo.ExpiredHoldRow, error) {
	if m.listExpiredFn == nil {
		return nil, nil
	}
	return m.listExpiredFn(ctx, now)
}
func (m *repoMock) MarkHoldReleased(ctx context.Context, tx *sql.Tx, holdID int64, reason model.HoldReleaseReason) (bool, error) {
	if m.markReleasedFn == nil {
		return true, nil
	}
	return m.markReleasedFn(ctx, tx, holdID, reason)
}

type invMock struct {
	checkFn   func(ctx context.Context, q inventoryrepo.AvailabilityQuery) ([]model.UnitOption, error)
	reserveFn func(ctx context.Context, unitID int64) error
	releaseFn func(ctx context.Context, unitID int64) error
}

var _ inventoryrepo.Repo = (*invMock)(nil)

func (m *invMock) CheckAvailability(ctx context.Context, q inventoryrepo.AvailabilityQuery) ([]model.UnitOption, error) {
	if m.checkFn == nil {
		return nil, nil
	}
	return m.checkFn(ctx, q)
}
func (m *invMock) Reserve(ctx context.Context, unitID int64) error {
	if m.reserveFn == nil {
		return nil
	}
	return m.reserveFn(ctx, unitID)
}
func (m *invMock) Release(ctx context.Context, unitID int64) error {
	if m.releaseFn == nil {
		return nil
	}
	return m.releaseFn(ctx, unitID)
}

type verMock struct {
	statusFn func(ctx context.Context, renterID int64) (model.VerificationStatus, error)
}

func (m *verMock) GetStatus(ctx context.Context, renterID int64) (model.VerificationStatus, error) {
	if m.statusFn == nil {
		return model.VerificationApproved, nil
	}
	return m.statusFn(ctx, renterID)
}

type payMock struct {
	createFn func(ctx context.Context, req midtransrepo.CreateTransactionReq) (*midtransrepo.CreateTransactionResp, error)
	verifyFn func(res model.PaymentResult) error
}

var _ midtransrepo.Repo = (*payMock)(nil)

func (m *payMock) CreateTransaction(ctx context.Context, req midtransrepo.CreateTransactionReq) (*midtransrepo.CreateTransactionResp, error) {
	if m.createFn == nil {
		return &midtransrepo.CreateTransactionResp{Token: "tok", RedirectURL: "https://pay.example/tok"}, nil
	}
	return m.createFn(ctx, req)
}
func (m *payMock) VerifySignature(res model.PaymentResult) error {
	if m.verifyFn == nil {
		return nil
	}
	return m.verifyFn(res)
}

// --- helpers ---

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func validCreateReq() bookingsvc.CreateReq {
	return bookingsvc.CreateReq{
		Model:       "Evo 200",
		Color:       "black",
		StationID:   7,
		StartDate:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
		PickupTime:  "10:00",
		ReturnTime:  "10:00",
		PricePerDay: 300000,
		Deposit:     500000,
	}
}

func evoUnit() model.UnitOption {
	return model.UnitOption{UnitID: 55, VehicleID: 9, Model: "Evo 200", Color: "black", PricePerDay: 300000, AvailableCount: 2}
}

// --- tests ---

func TestCreate_RequiresApprovedVerification(t *testing.T) {
	svc := bookingsvc.New(nil, &repoMock{}, &invMock{}, &verMock{
		statusFn: func(ctx context.Context, renterID int64) (model.VerificationStatus, error) {
			return model.VerificationPending, nil
		},
	}, &payMock{}, clock.NewFixed(testNow))

	_, err := svc.Create(context.Background(), 1, validCreateReq())
	require.Error(t, err)
	require.Equal(t, bookingsvc.ErrVerification, bookingsvc.Code(err))
	require.Contains(t, err.Error(), string(model.VerificationPending))
}

func TestCreate_RejectsPastPickup(t *testing.T) {
	svc := bookingsvc.New(nil, &repoMock{}, &invMock{}, &verMock{}, &payMock{}, clock.NewFixed(testNow))

	req := validCreateReq()
	req.StartDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	req.PickupTime = "11:00" // an hour before testNow

	_, err := svc.Create(context.Background(), 1, req)
	require.Equal(t, bookingsvc.ErrValidation, bookingsvc.Code(err))
}

func TestCreate_Validation(t *testing.T) {
	svc := bookingsvc.New(nil, &repoMock{}, &invMock{}, &verMock{}, &payMock{}, clock.NewFixed(testNow))

	bad := validCreateReq()
	bad.Model = ""
	_, err := svc.Create(context.Background(), 1, bad)
	require.Equal(t, bookingsvc.ErrValidation, bookingsvc.Code(err))

	bad = validCreateReq()
	bad.EndDate = bad.StartDate.AddDate(0, 0, -1)
	_, err = svc.Create(context.Background(), 1, bad)
	require.Equal(t, bookingsvc.ErrValidation, bookingsvc.Code(err))

	bad = validCreateReq()
	bad.PricePerDay = 0
	_, err = svc.Create(context.Background(), 1, bad)
	require.Equal(t, bookingsvc.ErrValidation, bookingsvc.Code(err))
}

func TestCreate_PriceAndHold(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var reserved []int64
	var inserted *model.Booking
	var hold *model.Hold

	repo := &repoMock{
		insertBookingFn: func(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
			b.ID = 11
			inserted = b
			return nil
		},
		insertHoldFn: func(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
			h.ID = 21
			hold = h
			return nil
		},
	}
	inv := &invMock{
		checkFn: func(ctx context.Context, q inventoryrepo.AvailabilityQuery) ([]model.UnitOption, error) {
			return []model.UnitOption{evoUnit()}, nil
		},
		reserveFn: func(ctx context.Context, unitID int64) error {
			reserved = append(reserved, unitID)
			return nil
		},
	}

	svc := bookingsvc.New(db, repo, inv, &verMock{}, &payMock{}, clock.NewFixed(testNow))
	out, err := svc.Create(context.Background(), 1, validCreateReq())
	require.NoError(t, err)

	// 3-day span at 300000/day
	require.Equal(t, float64(900000), out.Booking.TotalPrice)
	require.Equal(t, model.BookingPendingPayment, out.Booking.Status)
	require.Equal(t, "https://pay.example/tok", out.PaymentURL)

	// exactly one reservation call for the unit that stuck
	require.Equal(t, []int64{55}, reserved)

	require.NotNil(t, inserted)
	require.Equal(t, int64(55), inserted.UnitID)
	require.NotNil(t, hold)
	require.Equal(t, inserted.ID, hold.BookingID)
	require.Equal(t, testNow.Add(model.HoldTTL), hold.ExpiresAt)
	require.Equal(t, out.PaymentDueAt, hold.ExpiresAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NoUnitsAvailable(t *testing.T) {
	inv := &invMock{
		checkFn: func(ctx context.Context, q inventoryrepo.AvailabilityQuery) ([]model.UnitOption, error) {
			return nil, nil
		},
	}
	svc := bookingsvc.New(nil, &repoMock{}, inv, &verMock{}, &payMock{}, clock.NewFixed(testNow))

	_, err := svc.Create(context.Background(), 1, validCreateReq())
	require.Equal(t, bookingsvc.ErrVehicleUnavailable, bookingsvc.Code(err))
}

func TestCreate_SkipsSnatchedUnits(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	first := evoUnit()
	second := evoUnit()
	second.UnitID = 56

	var attempts []int64
	inv := &invMock{
		checkFn: func(ctx context.Context, q inventoryrepo.AvailabilityQuery) ([]model.UnitOption, error) {
			return []model.UnitOption{first, second}, nil
		},
		reserveFn: func(ctx context.Context, unitID int64) error {
			attempts = append(attempts, unitID)
			if unitID == 55 {
				return inventoryrepo.ErrUnitUnavailable
			}
			return nil
		},
	}

	svc := bookingsvc.New(db, &repoMock{}, inv, &verMock{}, &payMock{}, clock.NewFixed(testNow))
	out, err := svc.Create(context.Background(), 1, validCreateReq())
	require.NoError(t, err)
	require.Equal(t, []int64{55, 56}, attempts)
	require.Equal(t, int64(56), out.Booking.UnitID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ReleasesUnitWhenPersistFails(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	var released []int64
	inv := &invMock{
		checkFn: func(ctx context.Context, q inventoryrepo.AvailabilityQuery) ([]model.UnitOption, error) {
			return []model.UnitOption{evoUnit()}, nil
		},
		releaseFn: func(ctx context.Context, unitID int64) error {
			released = append(released, unitID)
			return nil
		},
	}
	repo := &repoMock{
		insertBookingFn: func(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
			return context.DeadlineExceeded
		},
	}

	svc := bookingsvc.New(db, repo, inv, &verMock{}, &payMock{}, clock.NewFixed(testNow))
	_, err := svc.Create(context.Background(), 1, validCreateReq())
	require.Error(t, err)
	require.Equal(t, []int64{55}, released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_OwnerOnly(t *testing.T) {
	repo := &repoMock{
		getByCodeFn: func(ctx context.Context, code string) (*model.Booking, error) {
			return &model.Booking{Code: code, RenterID: 2}, nil
		},
	}
	svc := bookingsvc.New(nil, repo, &invMock{}, &verMock{}, &payMock{}, clock.NewFixed(testNow))

	_, err := svc.Get(context.Background(), 1, "VR-x")
	require.Equal(t, bookingsvc.ErrNotOwner, bookingsvc.Code(err))

	b, err := svc.Get(context.Background(), 2, "VR-x")
	require.NoError(t, err)
	require.Equal(t, "VR-x", b.Code)
}

func TestCheckIn_Flow(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, code string) (*model.Booking, error) {
			return &model.Booking{ID: 3, Code: code, RenterID: 1, Status: model.BookingConfirmed}, nil
		},
	}
	svc := bookingsvc.New(db, repo, &invMock{}, &verMock{}, &payMock{}, clock.NewFixed(testNow))

	b, err := svc.CheckIn(context.Background(), 1, "VR-x")
	require.NoError(t, err)
	require.Equal(t, model.BookingCheckedIn, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckIn_WrongState(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &repoMock{
		getForUpdateFn: func(ctx context.Context, tx *sql.Tx, code string) (*model.Booking, error) {
			return &model.Booking{ID: 3, Code: code, RenterID: 1, Status: model.BookingPendingPayment}, nil
		},
	}
	svc := bookingsvc.New(db, repo, &invMock{}, &verMock{}, &payMock{}, clock.NewFixed(testNow))

	_, err := svc.CheckIn(context.Background(), 1, "VR-x")
	require.Equal(t, bookingsvc.ErrAlreadyResolved, bookingsvc.Code(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
