package verificationrepo

import (
	"context"

	"vehiclerental/model"
)

// Repo reports the renter's identity/license verification state. Only
// APPROVED lets a booking be created.
type Repo interface {
	GetStatus(ctx context.Context, renterID int64) (model.VerificationStatus, error)
}
