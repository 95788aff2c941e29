package forecast

import (
	"math"
	"time"

	"bess-valuation/internal/model"
)

const (
	DefaultHorizonHours = 24
	DefaultTemperatureC = 20.0

	confidenceZ  = 1.96
	daylightFrom = 6
	daylightTo   = 18
)

// Point is one forecast hour with a 95% interval.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	DemandKW  float64   `json:"demand_kw"`
	LowerKW   float64   `json:"lower_kw"`
	UpperKW   float64   `json:"upper_kw"`
}

// Forecast is the output of ForecastDemand.
type Forecast struct {
	Points []Point     `json:"points"`
	Model  LinearModel `json:"model"`
}

// Features is the regression input for a sample:
// [hour, weekday, month, temperature, solar_kw, wind_kw].
// Unknown temperature is taken as 20 C.
func Features(s model.LoadSample) []float64 {
	return []float64{
		float64(s.Timestamp.Hour()),
		float64(s.Timestamp.Weekday()),
		float64(s.Timestamp.Month()),
		s.Temperature(DefaultTemperatureC),
		s.SolarKW,
		s.WindKW,
	}
}

// ForecastDemand trains on history and projects demand for horizonHours after
// the last sample. Future solar follows a daylight sine between 06:00 and
// 18:00 scaled to the largest solar output seen; wind is assumed zero.
// horizonHours <= 0 means DefaultHorizonHours.
func ForecastDemand(history []model.LoadSample, horizonHours int) (Forecast, error) {
	if len(history) == 0 {
		return Forecast{Points: []Point{}}, nil
	}
	if horizonHours <= 0 {
		horizonHours = DefaultHorizonHours
	}

	features := make([][]float64, len(history))
	targets := make([]float64, len(history))
	maxSolar := 0.0
	for i, s := range history {
		features[i] = Features(s)
		targets[i] = s.DemandKW
		maxSolar = math.Max(maxSolar, s.SolarKW)
	}
	m, err := TrainLinearModel(features, targets)
	if err != nil {
		return Forecast{}, err
	}

	band := confidenceZ * math.Sqrt(math.Max(m.MSE, 0))
	last := history[len(history)-1].Timestamp
	points := make([]Point, horizonHours)
	for h := range points {
		ts := last.Add(time.Duration(h+1) * time.Hour)
		x := Features(model.LoadSample{
			Timestamp:    ts,
			SolarKW:      daylightSolar(ts.Hour(), maxSolar),
			TemperatureC: model.Float64(DefaultTemperatureC),
		})
		y := math.Max(0, m.Predict(x))
		points[h] = Point{
			Timestamp: ts,
			DemandKW:  y,
			LowerKW:   math.Max(0, y-band),
			UpperKW:   y + band,
		}
	}
	return Forecast{Points: points, Model: m}, nil
}

func daylightSolar(hour int, peak float64) float64 {
	if hour < daylightFrom || hour > daylightTo {
		return 0
	}
	phase := float64(hour-daylightFrom) / float64(daylightTo-daylightFrom)
	return peak * math.Sin(math.Pi*phase)
}
