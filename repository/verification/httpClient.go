package verificationrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"vehiclerental/model"
	"vehiclerental/util/httpx"
)

type httpRepo struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(baseURL string) Repo {
	return &httpRepo{baseURL: baseURL, client: httpx.Client()}
}

// statusPayload covers both response generations of the verification
// service: the current one carries `status`, the legacy one only a
// `verified` boolean. Normalization happens here, nowhere else.
type statusPayload struct {
	Status   string `json:"status"`
	Verified *bool  `json:"verified"`
}

func (r *httpRepo) GetStatus(ctx context.Context, renterID int64) (model.VerificationStatus, error) {
	url := fmt.Sprintf("%s/v1/renters/%d/verification", r.baseURL, renterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.VerificationNotSubmitted, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("verification status: %s", resp.Status)
	}

	var p statusPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", err
	}
	return normalize(p)
}

func normalize(p statusPayload) (model.VerificationStatus, error) {
	switch strings.ToUpper(p.Status) {
	case "APPROVED":
		return model.VerificationApproved, nil
	case "PENDING":
		return model.VerificationPending, nil
	case "REJECTED":
		return model.VerificationRejected, nil
	case "NOT_SUBMITTED":
		return model.VerificationNotSubmitted, nil
	}
	if p.Verified != nil {
		if *p.Verified {
			return model.VerificationApproved, nil
		}
		return model.VerificationPending, nil
	}
	return "", fmt.Errorf("unrecognized verification payload status=%q", p.Status)
}
