package analysis

import (
	"math"
	"sort"

	"bess-valuation/internal/model"

	"gonum.org/v1/gonum/stat"
)

// PriceStats summarizes the energy price distribution of a sample series.
type PriceStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`
	Spread float64 `json:"spread_p95_p05"`
}

func ComputePriceStats(samples []model.LoadSample) PriceStats {
	if len(samples) == 0 {
		return PriceStats{}
	}
	vals := make([]float64, len(samples))
	for i, s := range samples {
		vals[i] = s.PricePerKWh
	}
	sort.Float64s(vals)

	p := PriceStats{
		Count: len(vals),
		Min:   vals[0],
		Max:   vals[len(vals)-1],
		Mean:  stat.Mean(vals, nil),
		P05:   percentileSorted(vals, 0.05),
		P95:   percentileSorted(vals, 0.95),
	}
	p.Spread = p.P95 - p.P05
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(math.Max(0, math.Min(1, q)), stat.LinInterp, sorted, nil)
}

// Percentile returns the q-quantile (0..1) of vals, linearly interpolating
// the empirical distribution (gonum stat.LinInterp). vals is not modified.
func Percentile(vals []float64, q float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return percentileSorted(sorted, q)
}

// ArbitrageUpperBound is the perfect-foresight energy arbitrage value ($) of
// the battery over hourly samples: a DP over a usable-energy grid with one
// step of rated power per hour. Charging buys step/etaCharge at the sample
// price and discharging sells step*etaDischarge. Demand and generation are
// ignored, so it bounds what price-driven policies can earn.
func ArbitrageUpperBound(samples []model.LoadSample, b model.BatteryConfig) float64 {
	if len(samples) == 0 || b.PowerKW <= 0 || b.CapacityKWh <= 0 {
		return 0
	}
	usable := b.MaxEnergyKWh() - b.MinEnergyKWh()
	steps := int(math.Round(usable / b.PowerKW))
	if steps < 1 {
		steps = 1
	}
	stepKWh := usable / float64(steps)

	negInf := -1e100
	dp := make([]float64, steps+1)
	next := make([]float64, steps+1)
	for i := range dp {
		dp[i] = negInf
	}
	// Start half full, snapped to the grid.
	dp[int(math.Round(0.5*float64(steps)))] = 0

	for _, s := range samples {
		for i := range next {
			next[i] = negInf
		}
		buy := s.PricePerKWh * stepKWh / b.EfficiencyCharge
		sell := s.PricePerKWh * stepKWh * b.EfficiencyDischarge

		for i := 0; i <= steps; i++ {
			if dp[i] <= negInf/2 {
				continue
			}
			next[i] = math.Max(next[i], dp[i])
			if i < steps {
				next[i+1] = math.Max(next[i+1], dp[i]-buy)
			}
			if i > 0 {
				next[i-1] = math.Max(next[i-1], dp[i]+sell)
			}
		}
		dp, next = next, dp
	}

	best := negInf
	for _, v := range dp {
		best = math.Max(best, v)
	}
	if best <= negInf/2 {
		return 0
	}
	return best
}
