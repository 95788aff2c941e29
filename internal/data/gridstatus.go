package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bess-valuation/internal/model"
)

const (
	defaultGridStatusURL = "https://api.gridstatus.io"
	dateLayout           = "2006-01-02"
	minAPIKeyLen         = 10
)

// GridStatusClient fetches wholesale LMPs for a pricing node. The intervals
// feed tariff.RealTimeFromLMP for real-time pricing.
type GridStatusClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewGridStatusClient returns a client with a 30s timeout. An empty baseURL
// points at the public API.
func NewGridStatusClient(apiKey, baseURL string) *GridStatusClient {
	if baseURL == "" {
		baseURL = defaultGridStatusURL
	}
	return &GridStatusClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// QueryLocationParams selects one node of one dataset over a date range.
// Empty Timezone means "market".
type QueryLocationParams struct {
	DatasetID  string
	LocationID string
	StartTime  time.Time
	EndTime    time.Time
	Timezone   string
}

func (p QueryLocationParams) validate() error {
	switch {
	case p.DatasetID == "":
		return errors.New("dataset_id is required")
	case p.LocationID == "":
		return errors.New("location_id is required")
	case p.StartTime.IsZero() || p.EndTime.IsZero():
		return errors.New("start and end times are required")
	case p.StartTime.After(p.EndTime):
		return errors.New("start date must be before end date")
	}
	return nil
}

func (p QueryLocationParams) query() url.Values {
	tz := p.Timezone
	if tz == "" {
		tz = "market"
	}
	return url.Values{
		"start_time": {p.StartTime.Format(dateLayout)},
		"end_time":   {p.EndTime.Format(dateLayout)},
		"timezone":   {tz},
	}
}

// GridStatusError is a rejected call: a bad key caught before sending, or a
// non-200 answer. RetryAfter is set on rate limiting.
type GridStatusError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string
}

func (e *GridStatusError) Error() string { return e.Message }

// Temporary reports whether the same call may succeed later.
func (e *GridStatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// QueryLocation fetches the LMP intervals of one node.
func (c *GridStatusClient) QueryLocation(ctx context.Context, params QueryLocationParams) (*model.LMPResponse, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/datasets/%s/query/location/%s",
		c.BaseURL, url.PathEscape(params.DatasetID), url.PathEscape(params.LocationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.query().Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	log := slog.Default().With("component", "gridstatus", "dataset", params.DatasetID, "location", params.LocationID)
	started := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		log.Error("request failed", "error", err, "duration", time.Since(started))
		return nil, fmt.Errorf("query %s: %w", params.DatasetID, err)
	}
	defer resp.Body.Close()
	log.Info("response", "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode != http.StatusOK {
		gsErr := statusError(resp)
		log.Warn("request rejected", "code", gsErr.Code, "retry_after", gsErr.RetryAfter)
		return nil, gsErr
	}

	var out model.LMPResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", params.DatasetID, err)
	}
	log.Debug("received intervals", "count", len(out.Data))
	return &out, nil
}

// QueryLocationByString takes YYYY-MM-DD dates and queries in market time.
func (c *GridStatusClient) QueryLocationByString(ctx context.Context, datasetID, locationID, startDate, endDate string) (*model.LMPResponse, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}
	return c.QueryLocation(ctx, QueryLocationParams{
		DatasetID:  datasetID,
		LocationID: locationID,
		StartTime:  start,
		EndTime:    end,
	})
}

func (c *GridStatusClient) checkKey() error {
	switch {
	case c.APIKey == "":
		return &GridStatusError{Code: "MISSING_API_KEY", Message: "API key is required"}
	case len(c.APIKey) < minAPIKeyLen:
		return &GridStatusError{Code: "INVALID_API_KEY_FORMAT", Message: "API key appears to be invalid (too short)"}
	}
	return nil
}

func statusError(resp *http.Response) *GridStatusError {
	e := &GridStatusError{StatusCode: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusForbidden:
		e.Code, e.Message = "INVALID_API_KEY", "invalid API key or insufficient permissions"
	case http.StatusUnauthorized:
		e.Code, e.Message = "UNAUTHORIZED", "unauthorized: invalid API key"
	case http.StatusTooManyRequests:
		e.RetryAfter = resp.Header.Get("Retry-After")
		e.Code, e.Message = "RATE_LIMIT_EXCEEDED", "rate limit exceeded, retry after "+e.RetryAfter
	default:
		e.Code, e.Message = "API_ERROR", fmt.Sprintf("API returned %s", resp.Status)
		if detail := errorDetail(resp.Body); detail != "" {
			e.Message += ": " + detail
		}
	}
	return e
}

// errorDetail pulls the "detail" field out of an error body, if any.
func errorDetail(body io.Reader) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Detail
}
