package dispatch

import (
	"time"

	"bess-valuation/internal/model"
	"bess-valuation/internal/strategy"
)

// StepRecord is one simulated hour. BatteryPowerKW is positive while charging.
type StepRecord struct {
	Hour      int       `json:"hour"`
	Timestamp time.Time `json:"timestamp"`

	LoadKW    float64 `json:"load_kw"`
	SolarKW   float64 `json:"solar_kw"`
	WindKW    float64 `json:"wind_kw"`
	NetLoadKW float64 `json:"net_load_kw"`

	RequestedPowerKW float64      `json:"requested_power_kw"`
	BatteryPowerKW   float64      `json:"battery_power_kw"`
	Action           model.Action `json:"action"`
	Efficiency       float64      `json:"efficiency"`

	SOC    float64 `json:"soc"`
	SOCKWh float64 `json:"soc_kwh"`

	GridImportKW float64 `json:"grid_import_kw"`
	GridExportKW float64 `json:"grid_export_kw"`

	PricePerKWh        float64 `json:"price_per_kwh"`
	IncrementalSavings float64 `json:"incremental_savings"`
}

// Summary aggregates a run.
type Summary struct {
	SavingsByCategory     map[strategy.Category]float64 `json:"savings_by_category"`
	TotalSavings          float64                       `json:"total_savings"`
	EquivalentFullCycles  float64                       `json:"equivalent_full_cycles"`
	CapacityFactor        float64                       `json:"capacity_factor"`
	AverageSOC            float64                       `json:"average_soc"`
	PeakDemandReductionKW float64                       `json:"peak_demand_reduction_kw"`
	EnergyChargedKWh      float64                       `json:"energy_charged_kwh"`
	EnergyDischargedKWh   float64                       `json:"energy_discharged_kwh"`
	Hours                 int                           `json:"hours"`
	MonthlyDemandCredits  []MonthlyCredit               `json:"monthly_demand_credits,omitempty"`
}

// MonthlyCredit is the demand charge avoided in one billing month.
type MonthlyCredit struct {
	Month          string  `json:"month"` // YYYY-MM
	MaxReductionKW float64 `json:"max_reduction_kw"`
	Credit         float64 `json:"credit"`
}

// Result is the full output of a run.
type Result struct {
	Strategy string       `json:"strategy"`
	Steps    []StepRecord `json:"steps"`
	Summary  Summary      `json:"summary"`
	Final    State        `json:"-"`
}
