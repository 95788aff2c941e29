package handlers

import (
	"errors"
	"net/http"

	"bess-valuation/internal/analysis"
	"bess-valuation/internal/api/models"
	"bess-valuation/internal/battery"
	"bess-valuation/internal/forecast"
	"bess-valuation/internal/optimize"

	"github.com/gin-gonic/gin"
)

// AnalysisHandler serves load analysis, forecasting and degradation.
type AnalysisHandler struct {
	engine  *optimize.Engine
	sources *Sources
}

func NewAnalysisHandler(engine *optimize.Engine, sources *Sources) *AnalysisHandler {
	if sources == nil {
		sources = &Sources{}
	}
	return &AnalysisHandler{engine: engine, sources: sources}
}

// Clusters handles POST /api/v1/analysis/clusters
func (h *AnalysisHandler) Clusters(c *gin.Context) {
	var req models.ClusterRequest
	if !bindJSON(c, &req) {
		return
	}
	samples, err := h.sources.Load(c.Request.Context(), req.Data)
	if err != nil {
		respondSourceError(c, err)
		return
	}
	seed := req.Seed
	if seed == 0 {
		seed = h.engine.Options().Seed
	}
	res := h.engine.Cluster(samples, req.K, seed)
	c.JSON(http.StatusOK, models.ClusterResponse{K: res.K(), Result: res})
}

// Peaks handles POST /api/v1/analysis/peaks
func (h *AnalysisHandler) Peaks(c *gin.Context) {
	var req models.PeaksRequest
	if !bindJSON(c, &req) {
		return
	}
	samples, err := h.sources.Load(c.Request.Context(), req.Data)
	if err != nil {
		respondSourceError(c, err)
		return
	}
	rate := req.DemandChargeRate
	if rate <= 0 {
		rate = h.engine.Options().DemandChargeRate
	}
	c.JSON(http.StatusOK, gin.H{
		"peaks":  analysis.AnalyzePeakDemandPatterns(samples, rate),
		"prices": analysis.ComputePriceStats(samples),
	})
}

// ForecastDemand handles POST /api/v1/forecast/demand
func (h *AnalysisHandler) ForecastDemand(c *gin.Context) {
	var req models.ForecastRequest
	if !bindJSON(c, &req) {
		return
	}
	samples, err := h.sources.Load(c.Request.Context(), req.Data)
	if err != nil {
		respondSourceError(c, err)
		return
	}
	horizon := req.HorizonHours
	if horizon <= 0 {
		horizon = h.engine.Options().ForecastHorizonHours
	}
	f, err := forecast.ForecastDemand(samples, horizon)
	if err != nil {
		respondError(c, http.StatusBadRequest, "FORECAST_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// BatteryHealth handles POST /api/v1/forecast/battery-health
func (h *AnalysisHandler) BatteryHealth(c *gin.Context) {
	var req models.HealthRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, forecast.PredictBatteryHealth(req.Cycles, req.AgeYears, req.AvgTempC, req.AvgDoD))
}

// Degradation handles POST /api/v1/degradation/projection
func (h *AnalysisHandler) Degradation(c *gin.Context) {
	var req models.DegradationRequest
	if !bindJSON(c, &req) {
		return
	}
	years := req.Years
	if years <= 0 {
		years = h.engine.Options().ProjectionYears
	}
	traj, err := battery.ProjectDegradation(battery.ProjectionInput{
		Chemistry:     req.Chemistry,
		Years:         years,
		CyclesPerYear: req.CyclesPerYear,
		AvgDoD:        req.AvgDoD,
		AvgTempC:      req.AvgTempC,
	})
	if err != nil {
		if errors.Is(err, battery.ErrUnknownChemistry) {
			respondError(c, http.StatusBadRequest, "UNKNOWN_CHEMISTRY", err)
			return
		}
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	c.JSON(http.StatusOK, traj)
}
