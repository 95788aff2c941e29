package model

import (
	"errors"
)

// BatteryConfig defines the physical parameters of the storage system.
// Units:
// - CapacityKWh: kWh
// - PowerKW: kW (rated, symmetric for charge and discharge)
// - Efficiencies: 0..1
// - SOCMin/SOCMax: fractions of capacity
// - DegradationRatePerCycle: capacity fraction lost per equivalent full cycle
// - CalendarDegradationPerYear: capacity fraction lost per year at 25C
type BatteryConfig struct {
	Name                       string  `json:"name,omitempty" yaml:"name"`
	CapacityKWh                float64 `json:"capacity_kwh" yaml:"capacity_kwh"`
	PowerKW                    float64 `json:"power_kw" yaml:"power_kw"`
	EfficiencyCharge           float64 `json:"efficiency_charge" yaml:"efficiency_charge"`
	EfficiencyDischarge        float64 `json:"efficiency_discharge" yaml:"efficiency_discharge"`
	VoltageNominal             float64 `json:"voltage_nominal,omitempty" yaml:"voltage_nominal"`
	SOCMin                     float64 `json:"soc_min" yaml:"soc_min"`
	SOCMax                     float64 `json:"soc_max" yaml:"soc_max"`
	DegradationRatePerCycle    float64 `json:"degradation_rate_per_cycle,omitempty" yaml:"degradation_rate_per_cycle"`
	CalendarDegradationPerYear float64 `json:"calendar_degradation_per_year,omitempty" yaml:"calendar_degradation_per_year"`
	Chemistry                  string  `json:"chemistry,omitempty" yaml:"chemistry"`
}

func (b BatteryConfig) Validate() error {
	if b.CapacityKWh <= 0 {
		return errors.New("capacity_kwh must be > 0")
	}
	if b.PowerKW <= 0 {
		return errors.New("power_kw must be > 0")
	}
	if b.EfficiencyCharge <= 0 || b.EfficiencyCharge > 1 {
		return errors.New("efficiency_charge must be in (0, 1]")
	}
	if b.EfficiencyDischarge <= 0 || b.EfficiencyDischarge > 1 {
		return errors.New("efficiency_discharge must be in (0, 1]")
	}
	if b.SOCMin < 0 || b.SOCMax > 1 || b.SOCMin >= b.SOCMax {
		return errors.New("soc_min/soc_max must satisfy 0<=soc_min<soc_max<=1")
	}
	if b.VoltageNominal < 0 {
		return errors.New("voltage_nominal must be >= 0")
	}
	if b.DegradationRatePerCycle < 0 || b.CalendarDegradationPerYear < 0 {
		return errors.New("degradation rates must be >= 0")
	}
	return nil
}

// MinEnergyKWh is the lowest permitted stored energy.
func (b BatteryConfig) MinEnergyKWh() float64 { return b.SOCMin * b.CapacityKWh }

// MaxEnergyKWh is the highest permitted stored energy.
func (b BatteryConfig) MaxEnergyKWh() float64 { return b.SOCMax * b.CapacityKWh }

// ClampEnergy bounds a stored energy value to [MinEnergyKWh, MaxEnergyKWh].
func (b BatteryConfig) ClampEnergy(kwh float64) float64 {
	if kwh < b.MinEnergyKWh() {
		return b.MinEnergyKWh()
	}
	if kwh > b.MaxEnergyKWh() {
		return b.MaxEnergyKWh()
	}
	return kwh
}

// DefaultBattery is a 1 MWh / 250 kW LFP system used when no battery is configured.
func DefaultBattery() BatteryConfig {
	return BatteryConfig{
		Name:                       "default-lfp-1mwh",
		CapacityKWh:                1000,
		PowerKW:                    250,
		EfficiencyCharge:           0.95,
		EfficiencyDischarge:        0.95,
		VoltageNominal:             768,
		SOCMin:                     0.10,
		SOCMax:                     0.90,
		DegradationRatePerCycle:    0.00004,
		CalendarDegradationPerYear: 0.015,
		Chemistry:                  "lfp",
	}
}
