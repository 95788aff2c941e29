package analysis

import (
	"sort"

	"bess-valuation/internal/model"
)

// DefaultDemandChargeRate is the $/kW-month used when the caller passes none.
const DefaultDemandChargeRate = 12.0

const peakHourCount = 6

// PeakPatterns describes when and how hard a site peaks.
type PeakPatterns struct {
	HourlyAverageKW      [24]float64 `json:"hourly_average_kw"`
	PeakHours            []int       `json:"peak_hours"`
	SeasonalPeaksKW      [12]float64 `json:"seasonal_peaks_kw"`
	MaxDemandKW          float64     `json:"max_demand_kw"`
	DemandChargeRate     float64     `json:"demand_charge_rate"`
	DemandChargeExposure float64     `json:"demand_charge_exposure"`
}

// AnalyzePeakDemandPatterns averages demand by hour of day, picks the six
// highest hours, records each month's maximum and prices a year of demand
// charges at the overall maximum. rate <= 0 uses DefaultDemandChargeRate.
func AnalyzePeakDemandPatterns(samples []model.LoadSample, rate float64) PeakPatterns {
	if rate <= 0 {
		rate = DefaultDemandChargeRate
	}
	out := PeakPatterns{DemandChargeRate: rate}
	if len(samples) == 0 {
		return out
	}

	var sums [24]float64
	var counts [24]int
	for _, s := range samples {
		h := s.Timestamp.Hour()
		sums[h] += s.DemandKW
		counts[h]++

		m := int(s.Timestamp.Month()) - 1
		if s.DemandKW > out.SeasonalPeaksKW[m] {
			out.SeasonalPeaksKW[m] = s.DemandKW
		}
		if s.DemandKW > out.MaxDemandKW {
			out.MaxDemandKW = s.DemandKW
		}
	}

	hours := make([]int, 0, 24)
	for h := range sums {
		if counts[h] > 0 {
			out.HourlyAverageKW[h] = sums[h] / float64(counts[h])
			hours = append(hours, h)
		}
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return out.HourlyAverageKW[hours[i]] > out.HourlyAverageKW[hours[j]]
	})
	if len(hours) > peakHourCount {
		hours = hours[:peakHourCount]
	}
	out.PeakHours = hours
	out.DemandChargeExposure = out.MaxDemandKW * 12 * rate
	return out
}
