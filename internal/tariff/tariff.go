// Package tariff turns utility rate structures into an hourly price lookup.
package tariff

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"bess-valuation/internal/model"
)

// PriceFunc returns the $/kWh energy price for an hour of the week in a month.
type PriceFunc func(hour int, weekday time.Weekday, month time.Month) float64

// Flat charges one rate at all times.
type Flat struct {
	Rate float64 `yaml:"rate" json:"rate"`
}

func (f Flat) Price(int, time.Weekday, time.Month) float64 { return f.Rate }

// Period is one TOU window. StartHour is inclusive and EndHour exclusive;
// StartHour > EndHour wraps midnight. Empty Months means every month.
type Period struct {
	Name         string       `yaml:"name" json:"name"`
	StartHour    int          `yaml:"start_hour" json:"start_hour"`
	EndHour      int          `yaml:"end_hour" json:"end_hour"`
	Months       []time.Month `yaml:"months" json:"months,omitempty"`
	WeekdaysOnly bool         `yaml:"weekdays_only" json:"weekdays_only,omitempty"`
	Rate         float64      `yaml:"rate" json:"rate"`
}

func (p Period) covers(hour int, wd time.Weekday, m time.Month) bool {
	if p.WeekdaysOnly && (wd == time.Saturday || wd == time.Sunday) {
		return false
	}
	if len(p.Months) > 0 {
		found := false
		for _, pm := range p.Months {
			if pm == m {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch {
	case p.StartHour == p.EndHour:
		return false
	case p.StartHour < p.EndHour:
		return hour >= p.StartHour && hour < p.EndHour
	default:
		return hour >= p.StartHour || hour < p.EndHour
	}
}

// TOU is a time-of-use schedule. The first matching period wins; hours no
// period covers are billed at Default.
type TOU struct {
	Periods []Period `yaml:"periods" json:"periods"`
	Default float64  `yaml:"default_rate" json:"default_rate"`
}

func (t TOU) Price(hour int, wd time.Weekday, m time.Month) float64 {
	for _, p := range t.Periods {
		if p.covers(hour, wd, m) {
			return p.Rate
		}
	}
	return t.Default
}

// Validate checks hour ranges.
func (t TOU) Validate() error {
	for i, p := range t.Periods {
		if p.StartHour < 0 || p.StartHour > 23 || p.EndHour < 0 || p.EndHour > 24 {
			return fmt.Errorf("period %d (%s): hours must be within 0..24", i, p.Name)
		}
		if p.Rate < 0 {
			return fmt.Errorf("period %d (%s): negative rate", i, p.Name)
		}
	}
	return nil
}

// RealTime is an hourly price series keyed by the UTC start of the hour.
type RealTime struct {
	prices map[int64]float64
}

// RealTimeFromLMP averages wholesale LMP intervals into hourly $/kWh prices.
func RealTimeFromLMP(intervals []model.LMPInterval) *RealTime {
	sums := map[int64]float64{}
	counts := map[int64]int{}
	for _, it := range intervals {
		key := it.Start().UTC().Truncate(time.Hour).Unix()
		sums[key] += it.PricePerKWh()
		counts[key]++
	}
	rt := &RealTime{prices: make(map[int64]float64, len(sums))}
	for k, s := range sums {
		rt.prices[k] = s / float64(counts[k])
	}
	return rt
}

func (r *RealTime) Len() int { return len(r.prices) }

// At returns the price for the hour containing ts.
func (r *RealTime) At(ts time.Time) (float64, bool) {
	v, ok := r.prices[ts.UTC().Truncate(time.Hour).Unix()]
	return v, ok
}

// Hours lists the covered hours in order.
func (r *RealTime) Hours() []time.Time {
	out := make([]time.Time, 0, len(r.prices))
	for k := range r.prices {
		out = append(out, time.Unix(k, 0).UTC())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Apply returns copies of samples re-priced from the series. Samples in
// hours without a price keep their own, and the number kept is reported.
func (r *RealTime) Apply(samples []model.LoadSample) ([]model.LoadSample, int) {
	out := make([]model.LoadSample, len(samples))
	missing := 0
	for i, s := range samples {
		out[i] = s
		if v, ok := r.At(s.Timestamp); ok {
			out[i].PricePerKWh = v
		} else {
			missing++
		}
	}
	return out, missing
}

// Kinds of rate structure accepted by FromConfig.
const (
	KindFlat     = "flat"
	KindTOU      = "tou"
	KindRealTime = "realtime"
)

// Config is the YAML/JSON shape of a rate structure.
type Config struct {
	Kind    string   `yaml:"kind" json:"kind"`
	Rate    float64  `yaml:"rate" json:"rate,omitempty"`
	Periods []Period `yaml:"periods" json:"periods,omitempty"`
	Default float64  `yaml:"default_rate" json:"default_rate,omitempty"`
}

// FromConfig builds a PriceFunc. Empty and realtime kinds return nil: sample
// prices are used as they are (realtime samples are priced with Apply first).
func FromConfig(c Config) (PriceFunc, error) {
	switch strings.ToLower(strings.TrimSpace(c.Kind)) {
	case "", KindRealTime:
		return nil, nil
	case KindFlat:
		if c.Rate < 0 {
			return nil, fmt.Errorf("flat tariff: negative rate")
		}
		return Flat{Rate: c.Rate}.Price, nil
	case KindTOU:
		t := TOU{Periods: c.Periods, Default: c.Default}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("tou tariff: %w", err)
		}
		return t.Price, nil
	default:
		return nil, fmt.Errorf("unknown tariff kind %q", c.Kind)
	}
}
