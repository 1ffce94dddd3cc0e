// repository/booking/repo.go
package booking

import (
	"context"
	"database/sql"
	"time"

	"vehiclerental/model"
)

// ExpiredHoldRow is what the expiry sweep works through: one overdue hold
// joined with just enough of its booking to resolve it.
type ExpiredHoldRow struct {
	HoldID      int64
	BookingID   int64
	BookingCode string
	UnitID      int64
	TotalPrice  float64
}

// EditFields is the full set of terms rewritten by a successful edit.
type EditFields struct {
	VehicleID   int64
	UnitID      int64
	Color       string
	StationID   int64
	StartDate   time.Time
	EndDate     time.Time
	PickupTime  string
	ReturnTime  string
	PricePerDay float64
	TotalPrice  float64
}

type Repo interface {
	// Bookings
	InsertBooking(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	GetByCode(ctx context.Context, code string) (*model.Booking, error)
	GetByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*model.Booking, error)
	ListByRenter(ctx context.Context, renterID int64) ([]model.Booking, error)

	// UpdateStatusFrom is the compare-and-swap every transition goes
	// through: it only fires while the booking still sits in `from`,
	// and reports whether this caller won the move.
	UpdateStatusFrom(ctx context.Context, tx *sql.Tx, bookingID int64, from, to model.BookingStatus) (bool, error)
	ApplyEdit(ctx context.Context, tx *sql.Tx, bookingID int64, f EditFields) error

	// Holds
	InsertHold(ctx context.Context, tx *sql.Tx, h *model.Hold) error
	GetActiveHold(ctx context.Context, tx *sql.Tx, bookingID int64) (*model.Hold, error)
	ListExpiredHolds(ctx context.Context, now time.Time) ([]ExpiredHoldRow, error)
	MarkHoldReleased(ctx context.Context, tx *sql.Tx, holdID int64, reason model.HoldReleaseReason) (bool, error)
}

type repo struct {
	db *sql.DB
}

func New(db *sql.DB) Repo { return &repo{db: db} }

// Bookings

const bookingCols = `
	id, code, renter_id, vehicle_id, unit_id, color, station_id,
	start_date, end_date, pickup_time, return_time,
	price_per_day, total_price, deposit, status, edit_used,
	created_at, updated_at`

func (r *repo) InsertBooking(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `
		INSERT INTO bookings
			(code, renter_id, vehicle_id, unit_id, color, station_id,
			 start_date, end_date, pickup_time, return_time,
			 price_per_day, total_price, deposit, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at, updated_at`
	return tx.QueryRowContext(ctx, q,
		b.Code, b.RenterID, b.VehicleID, b.UnitID, b.Color, b.StationID,
		b.StartDate, b.EndDate, b.PickupTime, b.ReturnTime,
		b.PricePerDay, b.TotalPrice, b.Deposit, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func scanBooking(row *sql.Row) (*model.Booking, error) {
	b := &model.Booking{}
	err := row.Scan(
		&b.ID, &b.Code, &b.RenterID, &b.VehicleID, &b.UnitID, &b.Color, &b.StationID,
		&b.StartDate, &b.EndDate, &b.PickupTime, &b.ReturnTime,
		&b.PricePerDay, &b.TotalPrice, &b.Deposit, &b.Status, &b.EditUsed,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	q := `SELECT` + bookingCols + ` FROM bookings WHERE code = $1`
	return scanBooking(r.db.QueryRowContext(ctx, q, code))
}

func (r *repo) GetByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*model.Booking, error) {
	q := `SELECT` + bookingCols + ` FROM bookings WHERE code = $1 FOR UPDATE`
	return scanBooking(tx.QueryRowContext(ctx, q, code))
}

func (r *repo) ListByRenter(ctx context.Context, renterID int64) ([]model.Booking, error) {
	q := `SELECT` + bookingCols + `
		FROM bookings
		WHERE renter_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, renterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(
			&b.ID, &b.Code, &b.RenterID, &b.VehicleID, &b.UnitID, &b.Color, &b.StationID,
			&b.StartDate, &b.EndDate, &b.PickupTime, &b.ReturnTime,
			&b.PricePerDay, &b.TotalPrice, &b.Deposit, &b.Status, &b.EditUsed,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) UpdateStatusFrom(ctx context.Context, tx *sql.Tx, bookingID int64, from, to model.BookingStatus) (bool, error) {
	const q = `
		UPDATE bookings
		SET status = $3,
			updated_at = NOW()
		WHERE id = $1
		AND status = $2`
	res, err := tx.ExecContext(ctx, q, bookingID, from, to)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}

func (r *repo) ApplyEdit(ctx context.Context, tx *sql.Tx, bookingID int64, f EditFields) error {
	const q = `
		UPDATE bookings
		SET vehicle_id = $2,
			unit_id = $3,
			color = $4,
			station_id = $5,
			start_date = $6,
			end_date = $7,
			pickup_time = $8,
			return_time = $9,
			price_per_day = $10,
			total_price = $11,
			edit_used = TRUE,
			updated_at = NOW()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, bookingID,
		f.VehicleID, f.UnitID, f.Color, f.StationID,
		f.StartDate, f.EndDate, f.PickupTime, f.ReturnTime,
		f.PricePerDay, f.TotalPrice)
	return err
}

// Holds

func (r *repo) InsertHold(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	const q = `
		INSERT INTO holds (booking_id, unit_id, created_at, expires_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id`
	return tx.QueryRowContext(ctx, q, h.BookingID, h.UnitID, h.CreatedAt, h.ExpiresAt).Scan(&h.ID)
}

func (r *repo) GetActiveHold(ctx context.Context, tx *sql.Tx, bookingID int64) (*model.Hold, error) {
	const q = `
		SELECT id, booking_id, unit_id, created_at, expires_at, released, release_reason
		FROM holds
		WHERE booking_id = $1
		AND released = FALSE
		FOR UPDATE`
	h := &model.Hold{}
	err := tx.QueryRowContext(ctx, q, bookingID).Scan(
		&h.ID, &h.BookingID, &h.UnitID, &h.CreatedAt, &h.ExpiresAt, &h.Released, &h.ReleaseReason)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *repo) ListExpiredHolds(ctx context.Context, now time.Time) ([]ExpiredHoldRow, error) {
	// Plain read; the per-hold status CAS decides who actually resolves
	// a booking, so concurrent sweeps are safe.
	const q = `
		SELECT h.id, h.booking_id, b.code, h.unit_id, b.total_price
		FROM holds h
		JOIN bookings b ON b.id = h.booking_id
		WHERE h.released = FALSE
		AND h.expires_at <= $1
		ORDER BY h.expires_at`
	rows, err := r.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExpiredHoldRow
	for rows.Next() {
		var e ExpiredHoldRow
		if err := rows.Scan(&e.HoldID, &e.BookingID, &e.BookingCode, &e.UnitID, &e.TotalPrice); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repo) MarkHoldReleased(ctx context.Context, tx *sql.Tx, holdID int64, reason model.HoldReleaseReason) (bool, error) {
	// released = FALSE in the predicate is the release-exactly-once guard.
	const q = `
		UPDATE holds
		SET released = TRUE,
			release_reason = $2
		WHERE id = $1
		AND released = FALSE`
	res, err := tx.ExecContext(ctx, q, holdID, reason)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}
