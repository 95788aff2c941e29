package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"bess-valuation/internal/api/models"
	"bess-valuation/internal/data"
	"bess-valuation/internal/model"
	"bess-valuation/internal/tariff"

	"github.com/gin-gonic/gin"
)

// DatasetInfo represents information about a Grid Status dataset
type DatasetInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Market     string `json:"market"`
	Resolution string `json:"resolution"`
}

var knownDatasets = []DatasetInfo{
	{ID: "caiso_lmp_real_time_5_min", Name: "CAISO LMP Real-Time 5-Min", Market: "CAISO", Resolution: "5min"},
	{ID: "caiso_lmp_day_ahead_hourly", Name: "CAISO LMP Day-Ahead Hourly", Market: "CAISO", Resolution: "1h"},
	{ID: "ercot_spp_day_ahead_hourly", Name: "ERCOT SPP Day-Ahead Hourly", Market: "ERCOT", Resolution: "1h"},
	{ID: "pjm_lmp_day_ahead_hourly", Name: "PJM LMP Day-Ahead Hourly", Market: "PJM", Resolution: "1h"},
}

// ListDatasets handles GET /api/v1/datasets
func ListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": knownDatasets})
}

// ListSectors handles GET /api/v1/sectors
func ListSectors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sectors": data.Sectors()})
}

// Sources resolves request data sources into sample series.
type Sources struct {
	// GridStatusBaseURL overrides the Grid Status endpoint; empty uses the
	// public API.
	GridStatusBaseURL string
}

var errNoData = errors.New("data must contain samples or synthetic")

// Load builds the sample series for ds. Inline samples are copied and
// sorted; Prices, when set, re-prices every hour from wholesale LMPs.
func (s *Sources) Load(ctx context.Context, ds models.DataSource) ([]model.LoadSample, error) {
	var samples []model.LoadSample
	switch {
	case len(ds.Samples) > 0 && ds.Synthetic != nil:
		return nil, errors.New("data.samples and data.synthetic are mutually exclusive")
	case len(ds.Samples) > 0:
		samples = append([]model.LoadSample(nil), ds.Samples...)
		data.SortSamples(samples)
	case ds.Synthetic != nil:
		var err error
		samples, err = data.Synthetic(data.SyntheticParams{
			Sector:  ds.Synthetic.Sector,
			PeakKW:  ds.Synthetic.PeakKW,
			SolarKW: ds.Synthetic.SolarKW,
			Start:   ds.Synthetic.Start,
			Hours:   ds.Synthetic.Hours,
			Seed:    ds.Synthetic.Seed,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, errNoData
	}

	if ds.Prices == nil {
		return samples, nil
	}
	client := data.NewGridStatusClient(ds.Prices.APIKey, s.GridStatusBaseURL)
	resp, err := client.QueryLocationByString(ctx, ds.Prices.DatasetID, ds.Prices.LocationID, ds.Prices.StartDate, ds.Prices.EndDate)
	if err != nil {
		return nil, err
	}
	rt := tariff.RealTimeFromLMP(resp.Data)
	if rt.Len() == 0 {
		return nil, fmt.Errorf("no LMP intervals for %s", ds.Prices.LocationID)
	}
	priced, missing := rt.Apply(samples)
	if missing > 0 {
		logger().Warn("hours without LMP kept their sample price", "missing", missing, "location", ds.Prices.LocationID)
	}
	return priced, nil
}

// respondSourceError maps data source failures, passing Grid Status auth and
// rate limit failures through with their status. Upstream 5xx is a 502.
func respondSourceError(c *gin.Context, err error) {
	var gsErr *data.GridStatusError
	if errors.As(err, &gsErr) {
		statusCode := http.StatusBadRequest
		if gsErr.StatusCode == http.StatusForbidden || gsErr.StatusCode == http.StatusUnauthorized {
			statusCode = http.StatusUnauthorized
		} else if gsErr.StatusCode == http.StatusTooManyRequests {
			statusCode = http.StatusTooManyRequests
		} else if gsErr.Temporary() {
			statusCode = http.StatusBadGateway
		}
		c.JSON(statusCode, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    gsErr.Code,
				Message: gsErr.Message,
				Details: map[string]any{
					"status_code": gsErr.StatusCode,
					"retry_after": gsErr.RetryAfter,
				},
			},
		})
		return
	}
	respondError(c, http.StatusBadRequest, "DATA_SOURCE_ERROR", err)
}

func respondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return false
	}
	return true
}

func priceFunc(cfg *tariff.Config) (tariff.PriceFunc, error) {
	if cfg == nil {
		return nil, nil
	}
	return tariff.FromConfig(*cfg)
}

func logger() *slog.Logger {
	return slog.Default().With("component", "api")
}
