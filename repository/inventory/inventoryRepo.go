package inventoryrepo

import (
	"context"
	"errors"
	"time"

	"vehiclerental/model"
)

// ErrUnitUnavailable: the fleet service refused the reservation because the
// unit is already taken.
var ErrUnitUnavailable = errors.New("unit unavailable")

type AvailabilityQuery struct {
	Model     string
	StationID int64
	StartDate time.Time
	EndDate   time.Time
}

// Repo is the boundary to the fleet-inventory service. The unit availability
// counter lives over there; reserve and release are atomic on that side, and
// release is idempotent.
type Repo interface {
	CheckAvailability(ctx context.Context, q AvailabilityQuery) ([]model.UnitOption, error)
	Reserve(ctx context.Context, unitID int64) error
	Release(ctx context.Context, unitID int64) error
}
