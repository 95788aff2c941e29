package dispatch

import (
	"bess-valuation/internal/model"
	"bess-valuation/internal/strategy"
)

// InitialSOCFraction is where every run starts, clamped into the battery bounds.
const InitialSOCFraction = 0.5

// State is the mutable battery and accounting state of one run. Only the
// simulator's step function changes it.
type State struct {
	SOCKWh              float64
	CumulativeCycles    float64
	CumulativeEnergyKWh float64
	Savings             map[strategy.Category]float64
}

func newState(b model.BatteryConfig) *State {
	return &State{
		SOCKWh:  b.ClampEnergy(InitialSOCFraction * b.CapacityKWh),
		Savings: make(map[strategy.Category]float64, len(strategy.Categories())),
	}
}
