// Package data loads load/price sample series from files, generates
// synthetic sector profiles and fetches wholesale prices.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bess-valuation/internal/model"
)

// SampleColumns is the canonical CSV header. Only timestamp and demand_kw
// are required; the others may be absent or blank.
var SampleColumns = []string{"timestamp", "demand_kw", "solar_kw", "wind_kw", "price_per_kwh", "temperature_c"}

func LoadSamplesCSV(path string) ([]model.LoadSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	samples, err := ReadSamplesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// ReadSamplesCSV parses samples with a header row naming the columns in any
// order. Timestamps are RFC3339 or "2006-01-02 15:04". Rows are returned
// sorted by time.
func ReadSamplesCSV(r io.Reader) ([]model.LoadSample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"timestamp", "demand_kw"} {
		if _, ok := idx[req]; !ok {
			return nil, fmt.Errorf("missing required column %q", req)
		}
	}

	var out []model.LoadSample
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		s, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, s)
	}
	SortSamples(out)
	return out, nil
}

func parseRow(rec []string, idx map[string]int) (model.LoadSample, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(name string) (float64, bool, error) {
		v := field(name)
		if v == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", name, err)
		}
		return f, true, nil
	}

	var s model.LoadSample
	ts, err := parseTimestamp(field("timestamp"))
	if err != nil {
		return s, err
	}
	s.Timestamp = ts

	demand, ok, err := num("demand_kw")
	if err != nil {
		return s, err
	}
	if !ok {
		return s, errors.New("demand_kw is blank")
	}
	s.DemandKW = demand
	if s.SolarKW, _, err = num("solar_kw"); err != nil {
		return s, err
	}
	if s.WindKW, _, err = num("wind_kw"); err != nil {
		return s, err
	}
	if s.PricePerKWh, _, err = num("price_per_kwh"); err != nil {
		return s, err
	}
	temp, ok, err := num("temperature_c")
	if err != nil {
		return s, err
	}
	if ok {
		s.TemperatureC = model.Float64(temp)
	}
	return s, nil
}

func parseTimestamp(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
}

// WriteSamplesCSV writes samples with the canonical header.
func WriteSamplesCSV(w io.Writer, samples []model.LoadSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SampleColumns); err != nil {
		return err
	}
	for _, s := range samples {
		temp := ""
		if s.TemperatureC != nil {
			temp = strconv.FormatFloat(*s.TemperatureC, 'f', -1, 64)
		}
		row := []string{
			s.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(s.DemandKW, 'f', -1, 64),
			strconv.FormatFloat(s.SolarKW, 'f', -1, 64),
			strconv.FormatFloat(s.WindKW, 'f', -1, 64),
			strconv.FormatFloat(s.PricePerKWh, 'f', -1, 64),
			temp,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadSamples picks the loader by file extension (.json, else CSV).
func LoadSamples(path string) ([]model.LoadSample, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadSamplesJSON(path)
	}
	return LoadSamplesCSV(path)
}
