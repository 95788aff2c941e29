// Package config loads the YAML run configuration shared by the CLI and API.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bess-valuation/internal/data"
	"bess-valuation/internal/model"
	"bess-valuation/internal/optimize"
	"bess-valuation/internal/strategy"
	"bess-valuation/internal/tariff"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load battery parameters from a separate YAML (e.g. examples/batteries/*.yaml).
	// If both BatteryFile and Battery are provided, Battery overrides BatteryFile.
	BatteryFile  string                `yaml:"battery_file"`
	Battery      model.BatteryConfig   `yaml:"battery"`
	Strategy     optimize.StrategySpec `yaml:"strategy"`
	Tariff       tariff.Config         `yaml:"tariff"`
	Simulation   SimulationConfig      `yaml:"simulation"`
	Optimization optimize.Options      `yaml:"optimization"`
}

// SimulationConfig names the input series. DataFile wins over Synthetic.
type SimulationConfig struct {
	DataFile  string          `yaml:"data_file"`
	LMPFile   string          `yaml:"lmp_file"`
	Location  string          `yaml:"location"`
	Synthetic SyntheticConfig `yaml:"synthetic"`
}

type SyntheticConfig struct {
	Sector  string    `yaml:"sector"`
	PeakKW  float64   `yaml:"peak_kw"`
	SolarKW float64   `yaml:"solar_kw"`
	Hours   int       `yaml:"hours"`
	Seed    int64     `yaml:"seed"`
	Start   time.Time `yaml:"start"`
}

// Params converts the YAML block to generator parameters.
func (s SyntheticConfig) Params() data.SyntheticParams {
	return data.SyntheticParams{
		Sector:  s.Sector,
		PeakKW:  s.PeakKW,
		SolarKW: s.SolarKW,
		Start:   s.Start,
		Hours:   s.Hours,
		Seed:    s.Seed,
	}
}

// Default is used when no config file is given.
func Default() *Config {
	return &Config{
		Battery:      model.DefaultBattery(),
		Strategy:     optimize.StrategySpec{Name: strategy.NameHybrid},
		Optimization: optimize.DefaultOptions(),
		Simulation: SimulationConfig{
			Synthetic: SyntheticConfig{Sector: data.SectorOffice, PeakKW: 500, SolarKW: 150, Hours: 24 * 30, Seed: 42},
		},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	base := model.DefaultBattery()
	// If battery_file is set, load it and merge in any explicit overrides from c.Battery.
	if c.BatteryFile != "" {
		loaded, err := LoadBatteryFile(resolve(path, c.BatteryFile))
		if err != nil {
			return nil, err
		}
		base = MergeBattery(base, loaded)
	}
	c.Battery = MergeBattery(base, c.Battery)

	if c.Simulation.DataFile != "" {
		c.Simulation.DataFile = resolve(path, c.Simulation.DataFile)
	}
	if c.Simulation.LMPFile != "" {
		c.Simulation.LMPFile = resolve(path, c.Simulation.LMPFile)
	}
	return &c, nil
}

// resolve prefers interpreting relative paths as relative to the config file
// directory, but falls back to the provided path (relative to cwd) if that
// doesn't exist.
func resolve(configPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(filepath.Dir(configPath), p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Strategy.Name == "" {
		return errors.New("strategy.name is required")
	}
	if err := c.Battery.Validate(); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	if _, err := tariff.FromConfig(c.Tariff); err != nil {
		return fmt.Errorf("tariff config invalid: %w", err)
	}
	if c.Tariff.Kind == tariff.KindRealTime && c.Simulation.LMPFile == "" {
		return errors.New("tariff kind realtime requires simulation.lmp_file")
	}
	return nil
}

type batteryFileWrapper struct {
	Battery model.BatteryConfig `yaml:"battery"`
}

// LoadBatteryFile reads a battery YAML document with a top-level battery key.
func LoadBatteryFile(path string) (model.BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return model.BatteryConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Battery, nil
}

// LoadBatteryDir reads every *.yaml battery in dir, keyed by file name
// without extension.
func LoadBatteryDir(dir string) (map[string]model.BatteryConfig, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.BatteryConfig, len(paths))
	for _, p := range paths {
		b, err := LoadBatteryFile(p)
		if err != nil {
			return nil, err
		}
		b = MergeBattery(model.DefaultBattery(), b)
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		key := filepath.Base(p)
		out[key[:len(key)-len(filepath.Ext(key))]] = b
	}
	return out, nil
}

// MergeBattery overlays non-zero fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override model.BatteryConfig) model.BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Chemistry != "" {
		out.Chemistry = override.Chemistry
	}
	if override.CapacityKWh != 0 {
		out.CapacityKWh = override.CapacityKWh
	}
	if override.PowerKW != 0 {
		out.PowerKW = override.PowerKW
	}
	if override.EfficiencyCharge != 0 {
		out.EfficiencyCharge = override.EfficiencyCharge
	}
	if override.EfficiencyDischarge != 0 {
		out.EfficiencyDischarge = override.EfficiencyDischarge
	}
	if override.VoltageNominal != 0 {
		out.VoltageNominal = override.VoltageNominal
	}
	// Note: these are allowed to be 0 in theory, but our configs use non-zero values.
	if override.SOCMin != 0 {
		out.SOCMin = override.SOCMin
	}
	if override.SOCMax != 0 {
		out.SOCMax = override.SOCMax
	}
	if override.DegradationRatePerCycle != 0 {
		out.DegradationRatePerCycle = override.DegradationRatePerCycle
	}
	if override.CalendarDegradationPerYear != 0 {
		out.CalendarDegradationPerYear = override.CalendarDegradationPerYear
	}
	return out
}
