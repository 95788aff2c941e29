package handlers

import (
	"errors"
	"net/http"
	"time"

	"bess-valuation/internal/api/models"
	"bess-valuation/internal/battery"
	"bess-valuation/internal/dispatch"
	"bess-valuation/internal/metrics"
	"bess-valuation/internal/model"
	"bess-valuation/internal/optimize"
	"bess-valuation/internal/strategy"
	"bess-valuation/internal/tariff"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SimulationHandler serves dispatch simulations and valuations.
type SimulationHandler struct {
	engine    *optimize.Engine
	sim       *dispatch.Simulator
	batteries *BatteryHandler
	sources   *Sources
}

func NewSimulationHandler(engine *optimize.Engine, batteries *BatteryHandler, sources *Sources) *SimulationHandler {
	if sources == nil {
		sources = &Sources{}
	}
	return &SimulationHandler{
		engine:    engine,
		sim:       dispatch.New(),
		batteries: batteries,
		sources:   sources,
	}
}

// inputs resolves the shared request parts. It writes the error response
// and returns ok=false on failure.
func (h *SimulationHandler) inputs(c *gin.Context, ds models.DataSource, sel models.BatterySelection, tc *tariff.Config) (samples []model.LoadSample, b model.BatteryConfig, price tariff.PriceFunc, ok bool) {
	b, err := h.batteries.Resolve(sel)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BATTERY", err)
		return nil, b, nil, false
	}
	price, err = priceFunc(tc)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_TARIFF", err)
		return nil, b, nil, false
	}
	samples, err = h.sources.Load(c.Request.Context(), ds)
	if err != nil {
		respondSourceError(c, err)
		return nil, b, nil, false
	}
	return samples, b, price, true
}

// Simulate handles POST /api/v1/simulate
func (h *SimulationHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if !bindJSON(c, &req) {
		return
	}
	samples, b, price, ok := h.inputs(c, req.Data, req.BatterySelection, req.Tariff)
	if !ok {
		return
	}

	policy := strategy.Build(req.Strategy.Name, req.Strategy.Params, b)
	started := time.Now()
	res, err := h.sim.Run(samples, b, policy, dispatch.Options{
		Price:            price,
		DemandChargeRate: req.DemandChargeRate,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SIMULATION_ERROR", err)
		return
	}
	metrics.ObserveSimulation(res.Strategy, started)

	resp := models.SimulateResponse{
		ID:       uuid.NewString(),
		Strategy: res.Strategy,
		Summary:  res.Summary,
		FinalSOC: res.Final.SOCKWh / b.CapacityKWh,
	}
	if req.IncludeLedger {
		resp.Ledger = res.Steps
	}
	c.JSON(http.StatusOK, resp)
}

// Compare handles POST /api/v1/simulate/compare
func (h *SimulationHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if !bindJSON(c, &req) {
		return
	}
	samples, b, price, ok := h.inputs(c, req.Data, req.BatterySelection, req.Tariff)
	if !ok {
		return
	}
	cs, err := h.engine.CompareStrategies(c.Request.Context(), samples, b, req.Strategies, price)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SIMULATION_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, models.CompareResponse{
		ID:         uuid.NewString(),
		Comparison: optimize.RankByAnnualSavings(cs),
	})
}

// Optimize handles POST /api/v1/optimize
func (h *SimulationHandler) Optimize(c *gin.Context) {
	var req models.OptimizeRequest
	if !bindJSON(c, &req) {
		return
	}
	samples, b, price, ok := h.inputs(c, req.Data, req.BatterySelection, req.Tariff)
	if !ok {
		return
	}
	rep, err := h.engine.Run(c.Request.Context(), optimize.Request{
		Samples:  samples,
		Battery:  b,
		Strategy: req.Strategy,
		Price:    price,
	})
	if err != nil {
		if errors.Is(err, battery.ErrUnknownChemistry) {
			respondError(c, http.StatusBadRequest, "UNKNOWN_CHEMISTRY", err)
			return
		}
		respondError(c, http.StatusInternalServerError, "OPTIMIZATION_ERROR", err)
		return
	}
	if !req.IncludeLedger && rep.Simulation != nil {
		sim := *rep.Simulation
		sim.Steps = nil
		rep.Simulation = &sim
	}
	c.JSON(http.StatusOK, models.OptimizeResponse{ID: uuid.NewString(), Report: rep})
}

// MonteCarlo handles POST /api/v1/montecarlo
func (h *SimulationHandler) MonteCarlo(c *gin.Context) {
	var req models.MonteCarloRequest
	if !bindJSON(c, &req) {
		return
	}
	samples, b, price, ok := h.inputs(c, req.Data, req.BatterySelection, req.Tariff)
	if !ok {
		return
	}
	res, err := h.engine.MonteCarlo(c.Request.Context(), optimize.MonteCarloRequest{
		Samples:    samples,
		Battery:    b,
		Strategy:   req.Strategy,
		Price:      price,
		Runs:       req.Runs,
		LoadSigma:  req.LoadSigma,
		PriceSigma: req.PriceSigma,
		Seed:       req.Seed,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "MONTE_CARLO_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, models.MonteCarloResponse{ID: uuid.NewString(), Result: res})
}
