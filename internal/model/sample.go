package model

import "time"

// LoadSample is one hourly observation of site demand, on-site generation and price.
// Samples are read-only inputs; the simulator and analyzers expect them in
// chronological order.
type LoadSample struct {
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	DemandKW    float64   `json:"demand_kw" yaml:"demand_kw"`
	SolarKW     float64   `json:"solar_kw,omitempty" yaml:"solar_kw"`
	WindKW      float64   `json:"wind_kw,omitempty" yaml:"wind_kw"`
	PricePerKWh float64   `json:"price_per_kwh" yaml:"price_per_kwh"`

	// TemperatureC is nil when the source has no weather data.
	TemperatureC *float64 `json:"temperature_c,omitempty" yaml:"temperature_c"`
}

// RenewableKW is the combined on-site solar and wind generation.
func (s LoadSample) RenewableKW() float64 {
	return s.SolarKW + s.WindKW
}

// NetLoadKW is demand minus on-site renewable generation. It is negative when
// generation exceeds demand.
func (s LoadSample) NetLoadKW() float64 {
	return s.DemandKW - s.RenewableKW()
}

// Temperature returns the sample temperature, or def when unknown.
func (s LoadSample) Temperature(def float64) float64 {
	if s.TemperatureC == nil {
		return def
	}
	return *s.TemperatureC
}

// Float64 returns a pointer to v. Handy for optional sample fields.
func Float64(v float64) *float64 { return &v }
