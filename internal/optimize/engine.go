// Package optimize orchestrates a full valuation: load analysis, demand
// forecast, dispatch simulation, annualization, battery health and ROI.
package optimize

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"bess-valuation/internal/analysis"
	"bess-valuation/internal/battery"
	"bess-valuation/internal/dispatch"
	"bess-valuation/internal/finance"
	"bess-valuation/internal/forecast"
	"bess-valuation/internal/metrics"
	"bess-valuation/internal/model"
	"bess-valuation/internal/strategy"
	"bess-valuation/internal/tariff"

	"golang.org/x/sync/errgroup"
)

const (
	hoursPerYear     = 8760.0
	defaultChemistry = "lfp"
	defaultAvgTempC  = 25.0
	defaultAvgDoD    = 0.8
)

// Options configure an Engine. Zero fields take the defaults from DefaultOptions.
type Options struct {
	Clusters             int           `yaml:"clusters" json:"clusters"`
	Seed                 int64         `yaml:"seed" json:"seed"`
	ForecastHorizonHours int           `yaml:"forecast_horizon_hours" json:"forecast_horizon_hours"`
	DemandChargeRate     float64       `yaml:"demand_charge_rate" json:"demand_charge_rate"`
	ROIYears             int           `yaml:"roi_years" json:"roi_years"`
	ProjectionYears      int           `yaml:"projection_years" json:"projection_years"`
	CacheTTL             time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

func DefaultOptions() Options {
	return Options{
		Clusters:             analysis.DefaultClusters,
		Seed:                 42,
		ForecastHorizonHours: forecast.DefaultHorizonHours,
		DemandChargeRate:     analysis.DefaultDemandChargeRate,
		ROIYears:             finance.DefaultYears,
		ProjectionYears:      10,
		CacheTTL:             time.Hour,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Clusters <= 0 {
		o.Clusters = d.Clusters
	}
	if o.ForecastHorizonHours <= 0 {
		o.ForecastHorizonHours = d.ForecastHorizonHours
	}
	if o.DemandChargeRate <= 0 {
		o.DemandChargeRate = d.DemandChargeRate
	}
	if o.ROIYears <= 0 {
		o.ROIYears = d.ROIYears
	}
	if o.ProjectionYears <= 0 {
		o.ProjectionYears = d.ProjectionYears
	}
	return o
}

// StrategySpec names a policy and its parameters as configured.
type StrategySpec struct {
	Name   string         `yaml:"name" json:"name"`
	Params map[string]any `yaml:"params" json:"params,omitempty"`
}

// Request is the input to Engine.Run.
type Request struct {
	Samples  []model.LoadSample
	Battery  model.BatteryConfig
	Strategy StrategySpec
	// Price overrides sample prices when set.
	Price tariff.PriceFunc
}

// Sizing is the battery size the report was computed for.
type Sizing struct {
	CapacityKWh float64 `json:"capacity_kwh"`
	PowerKW     float64 `json:"power_kw"`
}

// Report is the full valuation of one battery and strategy.
type Report struct {
	Strategy string `json:"strategy"`

	Clusters            analysis.ClusterResult `json:"clusters"`
	Peaks               analysis.PeakPatterns  `json:"peaks"`
	Prices              analysis.PriceStats    `json:"prices"`
	ArbitrageUpperBound float64                `json:"arbitrage_upper_bound"`
	Forecast            forecast.Forecast      `json:"forecast"`

	Simulation     *dispatch.Result `json:"simulation,omitempty"`
	SimulatedHours int              `json:"simulated_hours"`

	AnnualizationFactor     float64                       `json:"annualization_factor"`
	AnnualSavings           float64                       `json:"annual_savings"`
	AnnualSavingsByCategory map[strategy.Category]float64 `json:"annual_savings_by_category"`
	AnnualCycles            float64                       `json:"annual_cycles"`
	AverageDoD              float64                       `json:"average_dod"`
	AverageTempC            float64                       `json:"average_temp_c"`

	Health      forecast.Health    `json:"health"`
	Degradation battery.Trajectory `json:"degradation"`
	Sizing      Sizing             `json:"recommended_sizing"`
	ROI         finance.ROI        `json:"roi"`
}

// Engine runs valuations. It is safe for concurrent use; the only state it
// keeps is a memo of clustering results.
type Engine struct {
	opts   Options
	sim    *dispatch.Simulator
	cache  *clusterCache
	logger *slog.Logger
}

func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:   opts,
		sim:    dispatch.New(),
		cache:  newClusterCache(opts.CacheTTL),
		logger: slog.Default().With("component", "optimize"),
	}
}

func (e *Engine) Options() Options { return e.opts }

// Run values one battery under one strategy. Analysis, forecast and
// simulation are independent and run concurrently.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	if err := req.Battery.Validate(); err != nil {
		return nil, fmt.Errorf("battery config invalid: %w", err)
	}
	chemistry := req.Battery.Chemistry
	if chemistry == "" {
		chemistry = defaultChemistry
	}
	if _, err := battery.LookupChemistry(chemistry); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	policy := strategy.Build(req.Strategy.Name, req.Strategy.Params, req.Battery)
	rep := &Report{
		Strategy:                policy.Name(),
		AnnualSavingsByCategory: map[strategy.Category]float64{},
		Sizing:                  Sizing{CapacityKWh: req.Battery.CapacityKWh, PowerKW: req.Battery.PowerKW},
	}
	capex := finance.CAPEX(req.Battery.CapacityKWh, req.Battery.PowerKW)
	if len(req.Samples) == 0 {
		rep.ROI = finance.SimpleROI(capex, 0, e.opts.ROIYears)
		return rep, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		rep.Clusters = e.clusters(req.Samples)
		rep.Peaks = analysis.AnalyzePeakDemandPatterns(req.Samples, e.opts.DemandChargeRate)
		rep.Prices = analysis.ComputePriceStats(req.Samples)
		rep.ArbitrageUpperBound = analysis.ArbitrageUpperBound(req.Samples, req.Battery)
		return nil
	})
	g.Go(func() error {
		f, err := forecast.ForecastDemand(req.Samples, e.opts.ForecastHorizonHours)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		rep.Forecast = f
		return nil
	})
	g.Go(func() error {
		started := time.Now()
		res, err := e.sim.Run(req.Samples, req.Battery, policy, dispatch.Options{
			Price:            req.Price,
			DemandChargeRate: e.opts.DemandChargeRate,
		})
		if err != nil {
			return fmt.Errorf("simulate: %w", err)
		}
		metrics.ObserveSimulation(rep.Strategy, started)
		rep.Simulation = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := rep.Simulation.Summary
	rep.SimulatedHours = sum.Hours
	rep.AnnualizationFactor = annualizationFactor(sum.Hours)
	for c, v := range sum.SavingsByCategory {
		rep.AnnualSavingsByCategory[c] = v * rep.AnnualizationFactor
	}
	rep.AnnualSavings = sum.TotalSavings * rep.AnnualizationFactor
	rep.AnnualCycles = sum.EquivalentFullCycles * rep.AnnualizationFactor
	rep.AverageDoD = averageDailyDoD(rep.Simulation.Steps)
	rep.AverageTempC = averageTemperature(req.Samples)

	rep.Health = forecast.PredictBatteryHealth(rep.AnnualCycles, 1, rep.AverageTempC, rep.AverageDoD)
	traj, err := battery.ProjectDegradation(battery.ProjectionInput{
		Chemistry:     chemistry,
		Years:         e.opts.ProjectionYears,
		CyclesPerYear: rep.AnnualCycles,
		AvgDoD:        rep.AverageDoD,
		AvgTempC:      rep.AverageTempC,
	})
	if err != nil {
		return nil, err
	}
	rep.Degradation = traj
	rep.ROI = finance.SimpleROI(capex, rep.AnnualSavings, e.opts.ROIYears)
	metrics.AnnualSavings.WithLabelValues(rep.Strategy).Set(rep.AnnualSavings)

	e.logger.Info("valuation complete",
		"strategy", rep.Strategy,
		"hours", rep.SimulatedHours,
		"annual_savings", rep.AnnualSavings,
		"annual_cycles", rep.AnnualCycles,
		"payback_years", rep.ROI.PaybackYears,
	)
	return rep, nil
}

func (e *Engine) clusters(samples []model.LoadSample) analysis.ClusterResult {
	return e.Cluster(samples, e.opts.Clusters, e.opts.Seed)
}

// Cluster groups daily load profiles into k clusters. Results are memoized
// by input when the engine has a cache.
func (e *Engine) Cluster(samples []model.LoadSample, k int, seed int64) analysis.ClusterResult {
	if k <= 0 {
		k = e.opts.Clusters
	}
	key := clusterKey(samples, k, seed)
	if res, ok := e.cache.Get(key); ok {
		return res
	}
	res := analysis.ClusterLoadProfiles(samples, k, rand.New(rand.NewSource(seed)))
	e.cache.Set(key, res)
	return res
}

// annualizationFactor scales a partial-year run to 8760 hours.
func annualizationFactor(hours int) float64 {
	if hours <= 0 {
		return 0
	}
	return hoursPerYear / float64(hours)
}

// averageDailyDoD is the mean daily SoC swing over days where the battery
// moved, or 0.8 when it never did.
func averageDailyDoD(steps []dispatch.StepRecord) float64 {
	type span struct{ lo, hi float64 }
	days := map[string]*span{}
	var order []string
	for _, s := range steps {
		key := s.Timestamp.Format("2006-01-02")
		sp, ok := days[key]
		if !ok {
			sp = &span{lo: s.SOC, hi: s.SOC}
			days[key] = sp
			order = append(order, key)
		}
		sp.lo = math.Min(sp.lo, s.SOC)
		sp.hi = math.Max(sp.hi, s.SOC)
	}
	total, n := 0.0, 0
	for _, k := range order {
		if swing := days[k].hi - days[k].lo; swing > 0 {
			total += swing
			n++
		}
	}
	if n == 0 {
		return defaultAvgDoD
	}
	return total / float64(n)
}

func averageTemperature(samples []model.LoadSample) float64 {
	sum, n := 0.0, 0
	for _, s := range samples {
		if s.TemperatureC != nil {
			sum += *s.TemperatureC
			n++
		}
	}
	if n == 0 {
		return defaultAvgTempC
	}
	return sum / float64(n)
}
