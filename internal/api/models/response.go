package models

import (
	"bess-valuation/internal/analysis"
	"bess-valuation/internal/dispatch"
	"bess-valuation/internal/model"
	"bess-valuation/internal/optimize"
)

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	ID       string                `json:"id"`
	Strategy string                `json:"strategy"`
	Summary  dispatch.Summary      `json:"summary"`
	FinalSOC float64               `json:"final_soc"`
	Ledger   []dispatch.StepRecord `json:"ledger,omitempty"`
}

// CompareResponse ranks strategies by annualized savings.
type CompareResponse struct {
	ID         string                `json:"id"`
	Comparison []optimize.Comparison `json:"comparison"`
}

// OptimizeResponse wraps a valuation report.
type OptimizeResponse struct {
	ID     string           `json:"id"`
	Report *optimize.Report `json:"report"`
}

type MonteCarloResponse struct {
	ID     string                     `json:"id"`
	Result *optimize.MonteCarloResult `json:"result"`
}

// ClusterResponse is the clustering result plus its pattern labels.
type ClusterResponse struct {
	K      int                    `json:"k"`
	Result analysis.ClusterResult `json:"result"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Specs model.BatteryConfig `json:"specs"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
