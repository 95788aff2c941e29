// Package battery models the state-dependent behaviour of a storage system:
// terminal voltage to state of charge, round-trip efficiency derating and
// capacity fade.
//
// Two degradation models live here. Degrade is the generic model driven by the
// battery's own per-cycle and calendar rates; ProjectDegradation is the
// chemistry-keyed year-by-year projector. They use different coefficients and
// combination rules and are kept apart on purpose.
package battery

import (
	"math"

	"bess-valuation/internal/model"
)

const (
	// DefaultTemperatureC is the reference temperature for calendar ageing.
	DefaultTemperatureC = 25.0

	// MinEfficiency keeps efficiency strictly positive so discharge division is safe.
	MinEfficiency = 0.01

	voltageWindowLow  = 0.85
	voltageWindowHigh = 1.02
	sigmoidSteepness  = 10.0
	sigmoidMidpoint   = 0.5

	calendarTempCoeff = 0.03
	crossTermWeight   = 0.1
	resistanceFactor  = 200.0
	retentionFloorPct = 50.0
	endOfLifePct      = 80.0
)

// SOCFromVoltage maps a terminal voltage to a state of charge fraction with a
// logistic curve over [0.85*Vn, 1.02*Vn]. Voltages outside the window clamp to
// SOCMin or SOCMax. A battery without a nominal voltage reports SOCMin.
func SOCFromVoltage(cfg model.BatteryConfig, voltage float64) float64 {
	vLow := voltageWindowLow * cfg.VoltageNominal
	vHigh := voltageWindowHigh * cfg.VoltageNominal
	if vHigh <= vLow || voltage <= vLow {
		return cfg.SOCMin
	}
	if voltage >= vHigh {
		return cfg.SOCMax
	}
	x := (voltage - vLow) / (vHigh - vLow)
	s := 1 / (1 + math.Exp(-sigmoidSteepness*(x-sigmoidMidpoint)))
	soc := cfg.SOCMin + s*(cfg.SOCMax-cfg.SOCMin)
	return clamp(soc, cfg.SOCMin, cfg.SOCMax)
}

// RoundTripEfficiency returns the efficiency applied to one interval of
// charging (powerKW > 0) or discharging (powerKW <= 0) at the given SoC
// fraction. The base efficiency is derated at SoC extremes and at high C-rate.
// The result is always within (0, 1].
func RoundTripEfficiency(cfg model.BatteryConfig, soc, powerKW float64) float64 {
	base := cfg.EfficiencyDischarge
	if powerKW > 0 {
		base = cfg.EfficiencyCharge
	}
	eff := base * socFactor(soc) * powerFactor(cfg, powerKW)
	if math.IsNaN(eff) || eff < MinEfficiency {
		return MinEfficiency
	}
	if eff > 1 {
		return 1
	}
	return eff
}

func socFactor(soc float64) float64 {
	switch {
	case soc >= 0.2 && soc <= 0.8:
		return 1.0
	case soc >= 0.1 && soc <= 0.9:
		return 0.95
	default:
		return 0.90
	}
}

func powerFactor(cfg model.BatteryConfig, powerKW float64) float64 {
	ratio := 0.0
	if cfg.PowerKW > 0 {
		ratio = math.Abs(powerKW) / cfg.PowerKW
	}
	switch {
	case ratio < 0.5:
		return 0.98
	case ratio <= 0.8:
		return 0.92
	default:
		return 0.85
	}
}

// Degradation is the health snapshot produced by Degrade.
type Degradation struct {
	CapacityRetentionPct     float64 `json:"capacity_retention_pct"`
	ResistanceIncreasePct    float64 `json:"resistance_increase_pct"`
	RemainingUsefulLifeYears float64 `json:"remaining_useful_life_years"`
	TotalDegradation         float64 `json:"total_degradation"`
}

// Degrade combines cycle and temperature-accelerated calendar ageing with a
// multiplicative cross term:
//
//	total = cycle + calendar + 0.1*cycle*calendar
//
// Retention floors at 50%. Remaining life extrapolates the observed annual
// rate down to 80% retention and is 0 when no rate can be observed.
func Degrade(cfg model.BatteryConfig, cycles, ageYears, avgTempC float64) Degradation {
	cycles = math.Max(cycles, 0)
	ageYears = math.Max(ageYears, 0)

	cycleAging := cycles * cfg.DegradationRatePerCycle
	calendarAging := ageYears * cfg.CalendarDegradationPerYear * math.Exp((avgTempC-DefaultTemperatureC)*calendarTempCoeff)
	total := cycleAging + calendarAging + crossTermWeight*cycleAging*calendarAging

	retention := math.Max(retentionFloorPct, (1-total)*100)

	rul := 0.0
	if ageYears > 0 {
		annualPct := total * 100 / ageYears
		if annualPct > 0 {
			rul = math.Max(0, (retention-endOfLifePct)/annualPct)
		}
	}

	return Degradation{
		CapacityRetentionPct:     retention,
		ResistanceIncreasePct:    total * resistanceFactor,
		RemainingUsefulLifeYears: rul,
		TotalDegradation:         total,
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
