package model

import "time"

// LMPResponse is the JSON envelope returned by the Grid Status location query.
type LMPResponse struct {
	StatusCode int           `json:"status_code"`
	Data       []LMPInterval `json:"data"`
}

// LMPInterval is one wholesale price interval for a pricing node.
// Prices are $/MWh; timestamps arrive as RFC3339 strings with offsets.
type LMPInterval struct {
	IntervalStartLocal time.Time `json:"interval_start_local"`
	IntervalStartUTC   time.Time `json:"interval_start_utc"`
	IntervalEndLocal   time.Time `json:"interval_end_local"`
	IntervalEndUTC     time.Time `json:"interval_end_utc"`

	Market   string `json:"market"`
	Location string `json:"location"`

	LMP float64 `json:"lmp"`
}

func (i LMPInterval) Duration() time.Duration {
	// Prefer UTC fields because they're unambiguous and consistent.
	if !i.IntervalEndUTC.IsZero() && !i.IntervalStartUTC.IsZero() {
		return i.IntervalEndUTC.Sub(i.IntervalStartUTC)
	}
	return i.IntervalEndLocal.Sub(i.IntervalStartLocal)
}

// Start returns the UTC start when known, else the local start.
func (i LMPInterval) Start() time.Time {
	if !i.IntervalStartUTC.IsZero() {
		return i.IntervalStartUTC
	}
	return i.IntervalStartLocal
}

// PricePerKWh converts the $/MWh LMP into $/kWh.
func (i LMPInterval) PricePerKWh() float64 {
	return i.LMP / 1000
}
