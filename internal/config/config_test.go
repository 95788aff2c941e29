package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bess-valuation/internal/model"
	"bess-valuation/internal/tariff"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadWithBatteryFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "batteries/small.yaml", `
battery:
  name: small
  capacity_kwh: 200
  power_kw: 100
  chemistry: nmc
`)
	writeFile(t, dir, "load.csv", "timestamp,demand_kw\n2024-01-01T00:00:00Z,10\n")
	cfgPath := writeFile(t, dir, "config.yaml", `
battery_file: batteries/small.yaml
battery:
  power_kw: 80
strategy:
  name: peak_shaving
  params:
    threshold_kw: 150
tariff:
  kind: tou
  default_rate: 0.1
  periods:
    - name: peak
      start_hour: 16
      end_hour: 21
      rate: 0.3
simulation:
  data_file: load.csv
optimization:
  clusters: 3
  cache_ttl: 30m
`)

	c, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "small", c.Battery.Name)
	assert.Equal(t, 200.0, c.Battery.CapacityKWh)
	assert.Equal(t, 80.0, c.Battery.PowerKW)
	assert.Equal(t, "nmc", c.Battery.Chemistry)
	// unspecified fields come from the default battery
	assert.Equal(t, model.DefaultBattery().EfficiencyCharge, c.Battery.EfficiencyCharge)
	assert.Equal(t, model.DefaultBattery().SOCMax, c.Battery.SOCMax)

	assert.Equal(t, "peak_shaving", c.Strategy.Name)
	assert.Equal(t, 150, c.Strategy.Params["threshold_kw"])
	assert.Equal(t, tariff.KindTOU, c.Tariff.Kind)
	require.Len(t, c.Tariff.Periods, 1)
	assert.Equal(t, filepath.Join(dir, "load.csv"), c.Simulation.DataFile)
	assert.Equal(t, 3, c.Optimization.Clusters)
	assert.Equal(t, 30*time.Minute, c.Optimization.CacheTTL)
}

func TestLoadValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing strategy", "battery:\n  capacity_kwh: 100\n", "strategy.name"},
		{"bad battery", "strategy:\n  name: none\nbattery:\n  soc_min: 0.95\n", "battery config invalid"},
		{"bad tariff", "strategy:\n  name: none\ntariff:\n  kind: weird\n", "tariff config invalid"},
		{"realtime without lmp", "strategy:\n  name: none\ntariff:\n  kind: realtime\n", "lmp_file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeFile(t, dir, tt.name+".yaml", tt.body)
			_, err := Load(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadUncheckedErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadUnchecked(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)

	p := writeFile(t, dir, "broken.yaml", "battery: [")
	_, err = LoadUnchecked(p)
	assert.ErrorContains(t, err, "parse")

	p = writeFile(t, dir, "missing-battery.yaml", "battery_file: gone.yaml\nstrategy:\n  name: none\n")
	_, err = LoadUnchecked(p)
	assert.Error(t, err)
}

func TestMergeBattery(t *testing.T) {
	base := model.DefaultBattery()
	out := MergeBattery(base, model.BatteryConfig{CapacityKWh: 50, SOCMin: 0.2})
	assert.Equal(t, 50.0, out.CapacityKWh)
	assert.Equal(t, 0.2, out.SOCMin)
	assert.Equal(t, base.PowerKW, out.PowerKW)
	assert.Equal(t, base.Chemistry, out.Chemistry)

	assert.Equal(t, base, MergeBattery(base, model.BatteryConfig{}))
}

func TestLoadBatteryDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "battery:\n  name: A\n  capacity_kwh: 100\n  power_kw: 50\n")
	writeFile(t, dir, "b.yaml", "battery:\n  name: B\n")
	writeFile(t, dir, "notes.txt", "ignored")

	got, err := LoadBatteryDir(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got["a"].CapacityKWh)
	assert.Equal(t, model.DefaultBattery().CapacityKWh, got["b"].CapacityKWh)

	writeFile(t, dir, "c.yaml", "battery:\n  soc_min: 0.99\n")
	_, err = LoadBatteryDir(dir)
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, 24*30, Default().Simulation.Synthetic.Params().Hours)
}

func TestShippedExamples(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "examples", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 500.0, c.Battery.CapacityKWh)
	assert.Equal(t, 0.1, c.Battery.SOCMin)
	assert.Equal(t, tariff.KindTOU, c.Tariff.Kind)
	assert.Len(t, c.Tariff.Periods, 2)
	assert.Equal(t, time.Hour, c.Optimization.CacheTTL)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), c.Simulation.Synthetic.Start.UTC())

	presets, err := LoadBatteryDir(filepath.Join("..", "..", "examples", "batteries"))
	require.NoError(t, err)
	assert.Contains(t, presets, "small_commercial")
	assert.Contains(t, presets, "nmc_fast")
	assert.Equal(t, "nmc", presets["nmc_fast"].Chemistry)
}
