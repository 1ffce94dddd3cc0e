package midtransrepo

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vehiclerental/model"
	"vehiclerental/util/httpx"
)

type httpRepo struct {
	baseURL   string
	serverKey string
	client    *http.Client
}

func NewHTTP(baseURL, serverKey string) Repo {
	// Snap session creation is slower than the availability gateways.
	return &httpRepo{baseURL: baseURL, serverKey: serverKey, client: httpx.WithTimeout(15 * time.Second)}
}

func (r *httpRepo) CreateTransaction(ctx context.Context, req CreateTransactionReq) (*CreateTransactionResp, error) {
	body := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     req.OrderRef,
			"gross_amount": req.GrossAmount,
		},
		"customer_details": map[string]any{
			"customer_id": fmt.Sprintf("renter-%d", req.RenterID),
		},
	}
	b, _ := json.Marshal(body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/snap/v1/transactions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(r.serverKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("midtrans create transaction: %s", resp.Status)
	}

	var out struct {
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.RedirectURL == "" {
		return nil, errors.New("midtrans: empty redirect url")
	}
	return &CreateTransactionResp{Token: out.Token, RedirectURL: out.RedirectURL}, nil
}

func (r *httpRepo) VerifySignature(res model.PaymentResult) error {
	want := Signature(res.OrderRef, res.StatusCode, res.GrossAmount, r.serverKey)
	if subtle.ConstantTimeCompare([]byte(want), []byte(res.SignatureKey)) != 1 {
		return ErrBadSignature
	}
	return nil
}

// Signature is SHA-512 over order_id + status_code + gross_amount + server
// key, hex encoded, exactly as the gateway computes it.
func Signature(orderRef, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderRef + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}
