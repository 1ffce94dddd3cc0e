// model/payment.go
package model

// PaymentResult is one asynchronous report from the payment gateway. The
// order reference doubles as the idempotency key: a reference that already
// resolved its booking never flips it again.
type PaymentResult struct {
	OrderRef          string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

type PaymentOutcome string

const (
	PaymentSuccess       PaymentOutcome = "SUCCESS"
	PaymentFailure       PaymentOutcome = "FAILURE"
	PaymentUserCancelled PaymentOutcome = "USER_CANCELLED"
	PaymentPending       PaymentOutcome = "PENDING"
)

// Outcome folds the gateway's transaction statuses into the three results
// the booking lifecycle cares about. Pending reports are acknowledged and
// ignored.
func (r PaymentResult) Outcome() PaymentOutcome {
	switch r.TransactionStatus {
	case "settlement", "capture":
		return PaymentSuccess
	case "cancel":
		return PaymentUserCancelled
	case "deny", "expire", "failure":
		return PaymentFailure
	default:
		return PaymentPending
	}
}
