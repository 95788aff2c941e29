package models

import (
	"time"

	"bess-valuation/internal/model"
	"bess-valuation/internal/optimize"
	"bess-valuation/internal/tariff"
)

// DataSource says where the load series comes from. Exactly one of Samples
// and Synthetic must be set; Prices optionally re-prices the series with
// wholesale LMPs.
type DataSource struct {
	Samples   []model.LoadSample `json:"samples,omitempty"`
	Synthetic *SyntheticSource   `json:"synthetic,omitempty"`
	Prices    *GridStatusSource  `json:"prices,omitempty"`
}

// SyntheticSource generates a sector profile server-side.
type SyntheticSource struct {
	Sector  string    `json:"sector" binding:"required"`
	PeakKW  float64   `json:"peak_kw" binding:"required,gt=0"`
	SolarKW float64   `json:"solar_kw"`
	Hours   int       `json:"hours" binding:"required,gt=0,lte=8760"`
	Seed    int64     `json:"seed"`
	Start   time.Time `json:"start,omitempty"`
}

// GridStatusSource defines how to fetch market data
type GridStatusSource struct {
	APIKey     string `json:"api_key" binding:"required"` // Grid Status API key
	DatasetID  string `json:"dataset_id" binding:"required"`
	LocationID string `json:"location_id" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate    string `json:"end_date" binding:"required"`   // YYYY-MM-DD
}

// BatterySelection picks a preset by ID and overlays explicit fields.
type BatterySelection struct {
	BatteryID string              `json:"battery_id,omitempty"`
	Battery   model.BatteryConfig `json:"battery"`
}

// SimulateRequest runs one strategy over a series.
type SimulateRequest struct {
	Data DataSource `json:"data"`
	BatterySelection
	Strategy         optimize.StrategySpec `json:"strategy"`
	Tariff           *tariff.Config        `json:"tariff,omitempty"`
	DemandChargeRate float64               `json:"demand_charge_rate,omitempty"`
	IncludeLedger    bool                  `json:"include_ledger,omitempty"` // default: false
}

// CompareRequest runs several strategies over the same series.
type CompareRequest struct {
	Data DataSource `json:"data"`
	BatterySelection
	Strategies []optimize.StrategySpec `json:"strategies" binding:"required,min=1"`
	Tariff     *tariff.Config          `json:"tariff,omitempty"`
}

// OptimizeRequest produces a full valuation report.
type OptimizeRequest struct {
	Data DataSource `json:"data"`
	BatterySelection
	Strategy      optimize.StrategySpec `json:"strategy"`
	Tariff        *tariff.Config        `json:"tariff,omitempty"`
	IncludeLedger bool                  `json:"include_ledger,omitempty"`
}

// MonteCarloRequest runs seeded noisy scenarios of one strategy.
type MonteCarloRequest struct {
	Data DataSource `json:"data"`
	BatterySelection
	Strategy   optimize.StrategySpec `json:"strategy"`
	Tariff     *tariff.Config        `json:"tariff,omitempty"`
	Runs       int                   `json:"runs,omitempty" binding:"omitempty,gte=0,lte=10000"`
	LoadSigma  float64               `json:"load_sigma,omitempty"`
	PriceSigma float64               `json:"price_sigma,omitempty"`
	Seed       int64                 `json:"seed,omitempty"`
}

// ClusterRequest groups daily load shapes.
type ClusterRequest struct {
	Data DataSource `json:"data"`
	K    int        `json:"k,omitempty" binding:"omitempty,gte=0,lte=366"`
	Seed int64      `json:"seed,omitempty"`
}

// PeaksRequest analyzes demand peaks.
type PeaksRequest struct {
	Data             DataSource `json:"data"`
	DemandChargeRate float64    `json:"demand_charge_rate,omitempty"`
}

// ForecastRequest forecasts demand after the end of the series.
type ForecastRequest struct {
	Data         DataSource `json:"data"`
	HorizonHours int        `json:"horizon_hours,omitempty" binding:"omitempty,gte=0,lte=8760"`
}

// HealthRequest predicts battery state of health.
type HealthRequest struct {
	Cycles   float64 `json:"cycles" binding:"gte=0"`
	AgeYears float64 `json:"age_years" binding:"gte=0"`
	AvgTempC float64 `json:"avg_temp_c"`
	AvgDoD   float64 `json:"avg_dod" binding:"gte=0,lte=1"`
}

// DegradationRequest projects capacity year by year for a chemistry.
type DegradationRequest struct {
	Chemistry     string  `json:"chemistry" binding:"required"`
	Years         int     `json:"years,omitempty" binding:"omitempty,gte=0,lte=100"`
	CyclesPerYear float64 `json:"cycles_per_year" binding:"gte=0"`
	AvgDoD        float64 `json:"avg_dod" binding:"gte=0,lte=1"`
	AvgTempC      float64 `json:"avg_temp_c"`
}
