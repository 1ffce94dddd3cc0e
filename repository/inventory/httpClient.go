package inventoryrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

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

func (r *httpRepo) CheckAvailability(ctx context.Context, q AvailabilityQuery) ([]model.UnitOption, error) {
	u, err := url.Parse(r.baseURL + "/v1/availability")
	if err != nil {
		return nil, err
	}
	qs := u.Query()
	qs.Set("model", q.Model)
	qs.Set("station_id", strconv.FormatInt(q.StationID, 10))
	qs.Set("start_date", q.StartDate.Format("2006-01-02"))
	qs.Set("end_date", q.EndDate.Format("2006-01-02"))
	u.RawQuery = qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory availability: %s", resp.Status)
	}

	var out struct {
		Units []model.UnitOption `json:"units"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Units, nil
}

func (r *httpRepo) Reserve(ctx context.Context, unitID int64) error {
	resp, err := r.post(ctx, "/v1/units/reserve", unitID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict:
		return ErrUnitUnavailable
	default:
		return fmt.Errorf("inventory reserve: %s", resp.Status)
	}
}

func (r *httpRepo) Release(ctx context.Context, unitID int64) error {
	resp, err := r.post(ctx, "/v1/units/release", unitID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Releasing an already-free unit answers 200 as well; the fleet side
	// keeps release idempotent.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inventory release: %s", resp.Status)
	}
	return nil
}

func (r *httpRepo) post(ctx context.Context, path string, unitID int64) (*http.Response, error) {
	b, _ := json.Marshal(map[string]any{"unit_id": unitID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.client.Do(req)
}
