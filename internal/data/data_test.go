package data

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSamplesCSV(t *testing.T) {
	in := `timestamp,demand_kw,solar_kw,wind_kw,price_per_kwh,temperature_c
2024-01-01T01:00:00Z,120,0,,0.12,
2024-01-01T00:00:00Z,100,5,2,0.10,18.5
`
	samples, err := ReadSamplesCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, samples, 2)

	// sorted by time
	assert.Equal(t, 0, samples[0].Timestamp.Hour())
	assert.Equal(t, 100.0, samples[0].DemandKW)
	assert.Equal(t, 5.0, samples[0].SolarKW)
	assert.Equal(t, 2.0, samples[0].WindKW)
	require.NotNil(t, samples[0].TemperatureC)
	assert.Equal(t, 18.5, *samples[0].TemperatureC)

	assert.Equal(t, 0.0, samples[1].WindKW)
	assert.Nil(t, samples[1].TemperatureC)
}

func TestReadSamplesCSVMinimalColumns(t *testing.T) {
	in := "demand_kw,timestamp\n50,2024-03-01 12:00\n"
	samples, err := ReadSamplesCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 50.0, samples[0].DemandKW)
	assert.Equal(t, 12, samples[0].Timestamp.Hour())
}

func TestReadSamplesCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "empty file"},
		{"missing demand column", "timestamp\n2024-01-01T00:00:00Z\n", "demand_kw"},
		{"bad timestamp", "timestamp,demand_kw\nyesterday,10\n", "line 2"},
		{"bad number", "timestamp,demand_kw\n2024-01-01T00:00:00Z,ten\n", "demand_kw"},
		{"blank demand", "timestamp,demand_kw\n2024-01-01T00:00:00Z,\n", "blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSamplesCSV(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteSamplesCSVRoundTrip(t *testing.T) {
	samples, err := Synthetic(SyntheticParams{Sector: SectorOffice, PeakKW: 200, SolarKW: 50, Hours: 48, Seed: 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSamplesCSV(&buf, samples))
	back, err := ReadSamplesCSV(&buf)
	require.NoError(t, err)
	require.Len(t, back, len(samples))
	for i := range samples {
		assert.True(t, samples[i].Timestamp.Equal(back[i].Timestamp))
		assert.InDelta(t, samples[i].DemandKW, back[i].DemandKW, 1e-9)
		assert.InDelta(t, *samples[i].TemperatureC, *back[i].TemperatureC, 1e-9)
	}
}

func TestLoadSamplesByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "load.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("timestamp,demand_kw\n2024-01-01T00:00:00Z,10\n"), 0o644))
	jsonPath := filepath.Join(dir, "load.JSON")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"timestamp":"2024-01-01T01:00:00Z","demand_kw":20},{"timestamp":"2024-01-01T00:00:00Z","demand_kw":10}]`), 0o644))

	fromCSV, err := LoadSamples(csvPath)
	require.NoError(t, err)
	assert.Len(t, fromCSV, 1)

	fromJSON, err := LoadSamples(jsonPath)
	require.NoError(t, err)
	require.Len(t, fromJSON, 2)
	assert.Equal(t, 10.0, fromJSON[0].DemandKW)

	_, err = LoadSamplesCSV(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestSyntheticDeterministic(t *testing.T) {
	p := SyntheticParams{Sector: SectorRetail, PeakKW: 300, SolarKW: 80, Hours: 24 * 7, Seed: 11}
	a, err := Synthetic(p)
	require.NoError(t, err)
	b, err := Synthetic(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	p.Seed = 12
	c, err := Synthetic(p)
	require.NoError(t, err)
	assert.NotEqual(t, a[10].DemandKW, c[10].DemandKW)
}

func TestSyntheticShape(t *testing.T) {
	start := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC) // Monday
	samples, err := Synthetic(SyntheticParams{Sector: "Office", PeakKW: 100, SolarKW: 40, Start: start, Hours: 24, Seed: 1})
	require.NoError(t, err)
	require.Len(t, samples, 24)

	assert.Greater(t, samples[11].DemandKW, samples[3].DemandKW)
	assert.Equal(t, 0.0, samples[2].SolarKW)
	assert.Greater(t, samples[12].SolarKW, 0.0)
	assert.Equal(t, 0.30, samples[17].PricePerKWh)
	assert.Equal(t, 0.10, samples[2].PricePerKWh)
	for _, s := range samples {
		assert.GreaterOrEqual(t, s.DemandKW, 0.0)
		assert.NotNil(t, s.TemperatureC)
	}
}

func TestSyntheticErrors(t *testing.T) {
	_, err := Synthetic(SyntheticParams{Sector: "stadium", PeakKW: 1, Hours: 1})
	assert.ErrorContains(t, err, "unknown sector")
	_, err = Synthetic(SyntheticParams{Sector: SectorIndustrial, Hours: 1})
	assert.ErrorContains(t, err, "peak_kw")
	_, err = Synthetic(SyntheticParams{Sector: SectorIndustrial, PeakKW: 1})
	assert.ErrorContains(t, err, "hours")
	assert.Equal(t, []string{"industrial", "office", "residential", "retail"}, Sectors())
}

const testKey = "test-key-0123456789"

func TestGridStatusQueryLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testKey, r.Header.Get("x-api-key"))
		assert.Equal(t, "/v1/datasets/caiso_lmp/query/location/NODE_1", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_time"))
		assert.Equal(t, "market", r.URL.Query().Get("timezone"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_code":200,"data":[{"interval_start_utc":"2024-01-01T00:00:00Z","interval_end_utc":"2024-01-01T01:00:00Z","location":"NODE_1","lmp":42.5}]}`))
	}))
	defer srv.Close()

	c := NewGridStatusClient(testKey, srv.URL)
	resp, err := c.QueryLocationByString(context.Background(), "caiso_lmp", "NODE_1", "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 42.5, resp.Data[0].LMP)
	assert.InDelta(t, 0.0425, resp.Data[0].PricePerKWh(), 1e-12)
}

func TestGridStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
	}{
		{"forbidden", http.StatusForbidden, "INVALID_API_KEY"},
		{"rate limited", http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{"unauthorized", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"server error", http.StatusInternalServerError, "API_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "30")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewGridStatusClient(testKey, srv.URL)
			_, err := c.QueryLocationByString(context.Background(), "ds", "loc", "2024-01-01", "2024-01-02")
			var gsErr *GridStatusError
			require.True(t, errors.As(err, &gsErr))
			assert.Equal(t, tt.code, gsErr.Code)
			assert.Equal(t, tt.status, gsErr.StatusCode)
			if tt.status == http.StatusTooManyRequests {
				assert.Equal(t, "30", gsErr.RetryAfter)
			}
		})
	}
}

func TestGridStatusValidation(t *testing.T) {
	ctx := context.Background()
	_, err := NewGridStatusClient("", "").QueryLocationByString(ctx, "ds", "loc", "2024-01-01", "2024-01-02")
	var gsErr *GridStatusError
	require.True(t, errors.As(err, &gsErr))
	assert.Equal(t, "MISSING_API_KEY", gsErr.Code)

	_, err = NewGridStatusClient("short", "").QueryLocationByString(ctx, "ds", "loc", "2024-01-01", "2024-01-02")
	require.True(t, errors.As(err, &gsErr))
	assert.Equal(t, "INVALID_API_KEY_FORMAT", gsErr.Code)

	c := NewGridStatusClient(testKey, "")
	_, err = c.QueryLocationByString(ctx, "ds", "loc", "01/01/2024", "2024-01-02")
	assert.ErrorContains(t, err, "start_date")
	_, err = c.QueryLocationByString(ctx, "ds", "loc", "2024-01-05", "2024-01-02")
	assert.ErrorContains(t, err, "before")
	_, err = c.QueryLocation(ctx, QueryLocationParams{LocationID: "loc", StartTime: time.Now(), EndTime: time.Now()})
	assert.ErrorContains(t, err, "dataset_id")
}

func TestGridStatusErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"detail":"upstream ISO unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewGridStatusClient(testKey, srv.URL+"/").QueryLocationByString(context.Background(), "ds", "loc", "2024-01-01", "2024-01-02")
	var gsErr *GridStatusError
	require.True(t, errors.As(err, &gsErr))
	assert.Equal(t, "API_ERROR", gsErr.Code)
	assert.Contains(t, gsErr.Message, "upstream ISO unavailable")
	assert.True(t, gsErr.Temporary())
	assert.False(t, (&GridStatusError{StatusCode: http.StatusForbidden}).Temporary())
}
