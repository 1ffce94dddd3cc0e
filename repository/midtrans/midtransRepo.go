package midtransrepo

import (
	"context"
	"errors"

	"vehiclerental/model"
)

// ErrBadSignature: the callback's signature key does not match what the
// shared server key produces over the result fields.
var ErrBadSignature = errors.New("midtrans: signature mismatch")

type CreateTransactionReq struct {
	OrderRef    string
	GrossAmount float64
	RenterID    int64
}

type CreateTransactionResp struct {
	Token       string
	RedirectURL string
}

type Repo interface {
	// CreateTransaction opens a payment session and returns the redirect
	// URL handed back to the renter.
	CreateTransaction(ctx context.Context, req CreateTransactionReq) (*CreateTransactionResp, error)

	// VerifySignature authenticates an asynchronous payment result.
	VerifySignature(res model.PaymentResult) error
}
