package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"bess-valuation/internal/config"
	"bess-valuation/internal/data"
	"bess-valuation/internal/model"
	"bess-valuation/internal/optimize"
	"bess-valuation/internal/tariff"
)

// inputs is everything a valuation command needs, resolved from config and
// flags.
type inputs struct {
	cfg     *config.Config
	samples []model.LoadSample
	price   tariff.PriceFunc
}

func (g *globals) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.LoadUnchecked(g.configPath); err != nil {
			return nil, err
		}
	}
	if cfg.Strategy.Name == "" {
		cfg.Strategy.Name = config.Default().Strategy.Name
	}
	if g.strategy != "" {
		cfg.Strategy = optimize.StrategySpec{Name: g.strategy}
	}
	if g.dataPath != "" {
		cfg.Simulation.DataFile = g.dataPath
	}
	if g.lmpPath != "" {
		cfg.Simulation.LMPFile = g.lmpPath
		if cfg.Tariff.Kind == "" {
			cfg.Tariff.Kind = tariff.KindRealTime
		}
	}
	if g.location != "" {
		cfg.Simulation.Location = g.location
	}

	syn := &cfg.Simulation.Synthetic
	def := config.Default().Simulation.Synthetic
	if g.sector != "" {
		syn.Sector = g.sector
	}
	if g.peakKW > 0 {
		syn.PeakKW = g.peakKW
	}
	if g.solarKW >= 0 {
		syn.SolarKW = g.solarKW
	}
	if g.hours > 0 {
		syn.Hours = g.hours
	}
	if g.seed != 0 {
		syn.Seed = g.seed
	}
	if syn.Sector == "" {
		syn.Sector = def.Sector
	}
	if syn.PeakKW <= 0 {
		syn.PeakKW = def.PeakKW
	}
	if syn.Hours <= 0 {
		syn.Hours = def.Hours
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (g *globals) loadInputs(ctx context.Context) (*inputs, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	in := &inputs{cfg: cfg}

	if cfg.Simulation.DataFile != "" {
		in.samples, err = data.LoadSamples(cfg.Simulation.DataFile)
		if err != nil {
			return nil, fmt.Errorf("load samples: %w", err)
		}
		slog.Info("loaded samples", "file", cfg.Simulation.DataFile, "count", len(in.samples))
	} else {
		in.samples, err = data.Synthetic(cfg.Simulation.Synthetic.Params())
		if err != nil {
			return nil, fmt.Errorf("synthetic profile: %w", err)
		}
		slog.Info("generated synthetic profile", "sector", cfg.Simulation.Synthetic.Sector, "hours", len(in.samples))
	}

	intervals, err := g.lmpIntervals(ctx, cfg.Simulation)
	if err != nil {
		return nil, err
	}
	if intervals != nil {
		rt := tariff.RealTimeFromLMP(intervals)
		var missing int
		in.samples, missing = rt.Apply(in.samples)
		slog.Info("applied real-time prices", "hours", rt.Len(), "unpriced_samples", missing)
	}

	in.price, err = tariff.FromConfig(cfg.Tariff)
	if err != nil {
		return nil, err
	}
	return in, nil
}

// lmpIntervals returns wholesale intervals for one node, from a saved file or
// a live Grid Status query, or nil when neither is configured.
func (g *globals) lmpIntervals(ctx context.Context, sim config.SimulationConfig) ([]model.LMPInterval, error) {
	switch {
	case sim.LMPFile != "":
		resp, err := data.LoadLMPJSON(sim.LMPFile)
		if err != nil {
			return nil, fmt.Errorf("load lmp file: %w", err)
		}
		return pickLocation(data.GroupByLocation(resp), sim.Location)
	case g.gsDataset != "":
		if sim.Location == "" {
			return nil, errors.New("--location is required with --gridstatus-dataset")
		}
		client := data.NewGridStatusClient(os.Getenv("GRIDSTATUS_API_KEY"), os.Getenv("GRIDSTATUS_BASE_URL"))
		resp, err := client.QueryLocationByString(ctx, g.gsDataset, sim.Location, g.gsStart, g.gsEnd)
		if err != nil {
			return nil, err
		}
		return resp.Data, nil
	default:
		return nil, nil
	}
}

func pickLocation(byLoc map[string][]model.LMPInterval, location string) ([]model.LMPInterval, error) {
	if location != "" {
		intervals, ok := byLoc[location]
		if !ok {
			return nil, fmt.Errorf("location %q not in LMP data", location)
		}
		return intervals, nil
	}
	if len(byLoc) == 1 {
		for _, intervals := range byLoc {
			return intervals, nil
		}
	}
	locs := make([]string, 0, len(byLoc))
	for l := range byLoc {
		locs = append(locs, l)
	}
	sort.Strings(locs)
	return nil, fmt.Errorf("LMP data has %d locations, pick one with --location (%s)", len(locs), strings.Join(locs, ", "))
}

func newEngine(cfg *config.Config) *optimize.Engine {
	return optimize.New(cfg.Optimization)
}
