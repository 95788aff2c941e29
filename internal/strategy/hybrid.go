package strategy

import (
	"math"
	"strings"
)

// Hybrid runs several policies each interval, sums their requests clipped to
// rated power, and splits discharge savings evenly across the members' primary
// categories. With the default members that is 50/50 between TOU arbitrage
// and peak shaving.
type Hybrid struct {
	Policies []Policy
}

// NewHybrid builds the default tou_arbitrage + peak_shaving composite.
func NewHybrid(peakThresholdKW float64) *Hybrid {
	return &Hybrid{Policies: []Policy{
		&TOUArbitrage{},
		&PeakShaving{ThresholdKW: peakThresholdKW},
	}}
}

func (h *Hybrid) Name() string {
	names := make([]string, len(h.Policies))
	for i, p := range h.Policies {
		names[i] = p.Name()
	}
	return "hybrid(" + strings.Join(names, "+") + ")"
}

func (h *Hybrid) Decide(ctx Context) Decision {
	if len(h.Policies) == 0 {
		return Idle
	}
	total := 0.0
	split := make(map[Category]float64, len(h.Policies))
	share := 1 / float64(len(h.Policies))
	for _, p := range h.Policies {
		total += p.Decide(ctx).PowerKW
		split[primaryCategory(p)] += share
	}
	rated := ctx.Battery.PowerKW
	total = math.Max(-rated, math.Min(rated, total))
	return Decision{PowerKW: total, Split: split}
}

func primaryCategory(p Policy) Category {
	switch p.(type) {
	case *PeakShaving:
		return CategoryPeakShaving
	case *FrequencyRegulation:
		return CategoryFrequencyReg
	case *RenewableIntegration:
		return CategoryRenewableInteg
	case *SolarSelfConsumption:
		return CategorySolarSelf
	default:
		return CategoryTOUArbitrage
	}
}
