package strategy

import (
	"testing"
	"time"

	"bess-valuation/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBattery() model.BatteryConfig {
	return model.BatteryConfig{
		CapacityKWh:         1000,
		PowerKW:             250,
		EfficiencyCharge:    0.95,
		EfficiencyDischarge: 0.95,
		SOCMin:              0.1,
		SOCMax:              0.9,
	}
}

func ctxAt(socFrac float64, s model.LoadSample) Context {
	b := testBattery()
	return Context{Sample: s, SOCKWh: socFrac * b.CapacityKWh, Battery: b, Price: s.PricePerKWh}
}

func TestPeakShaving(t *testing.T) {
	p := &PeakShaving{ThresholdKW: 500}

	d := p.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 700}))
	assert.InDelta(t, -200, d.PowerKW, 1e-9)
	assert.Equal(t, map[Category]float64{CategoryPeakShaving: 1}, d.Split)

	// Rated power caps the discharge.
	d = p.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 1500}))
	assert.InDelta(t, -250, d.PowerKW, 1e-9)

	// Reserve caps it near the floor.
	d = p.Decide(ctxAt(0.15, model.LoadSample{DemandKW: 1500}))
	assert.InDelta(t, -50, d.PowerKW, 1e-9)

	// Empty battery does nothing.
	assert.Equal(t, Idle, p.Decide(ctxAt(0.1, model.LoadSample{DemandKW: 1500})))

	// Below 70% of threshold it recharges.
	d = p.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 300}))
	assert.InDelta(t, 50, d.PowerKW, 1e-9)

	// Between 70% and 100% it idles.
	assert.Equal(t, Idle, p.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 400})))

	// Solar reduces net load.
	d = p.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 700, SolarKW: 150}))
	assert.InDelta(t, -50, d.PowerKW, 1e-9)
}

func TestPeakShaving_BandOverridesBounds(t *testing.T) {
	p := &PeakShaving{ThresholdKW: 500, Band: Band{Min: 0.45}}
	d := p.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 900}))
	assert.InDelta(t, -50, d.PowerKW, 1e-9)
}

func TestArbitrage(t *testing.T) {
	a := &Arbitrage{BuyBelow: 0.08, SellAbove: 0.15}

	d := a.Decide(ctxAt(0.5, model.LoadSample{PricePerKWh: 0.05}))
	assert.InDelta(t, 250, d.PowerKW, 1e-9)
	assert.Equal(t, map[Category]float64{CategoryTOUArbitrage: 1}, d.Split)

	d = a.Decide(ctxAt(0.5, model.LoadSample{PricePerKWh: 0.20}))
	assert.InDelta(t, -250, d.PowerKW, 1e-9)

	assert.Equal(t, Idle, a.Decide(ctxAt(0.5, model.LoadSample{PricePerKWh: 0.10})))
	assert.Equal(t, Idle, a.Decide(ctxAt(0.9, model.LoadSample{PricePerKWh: 0.01})))

	d = a.Decide(ctxAt(0.85, model.LoadSample{PricePerKWh: 0.08}))
	assert.InDelta(t, 50, d.PowerKW, 1e-9)

	// Zero value uses the default thresholds.
	d = (&Arbitrage{}).Decide(ctxAt(0.5, model.LoadSample{PricePerKWh: 0.15}))
	assert.InDelta(t, -250, d.PowerKW, 1e-9)
}

func TestFrequencyRegulation(t *testing.T) {
	f := &FrequencyRegulation{}

	assert.Equal(t, Idle, f.Decide(ctxAt(0.53, model.LoadSample{})))
	assert.Equal(t, Idle, f.Decide(ctxAt(0.47, model.LoadSample{})))

	d := f.Decide(ctxAt(0.8, model.LoadSample{}))
	assert.InDelta(t, -125, d.PowerKW, 1e-9)

	// Never pushes past the target.
	d = f.Decide(ctxAt(0.56, model.LoadSample{}))
	assert.InDelta(t, -60, d.PowerKW, 1e-9)

	d = f.Decide(ctxAt(0.2, model.LoadSample{}))
	assert.InDelta(t, 125, d.PowerKW, 1e-9)
	assert.Equal(t, map[Category]float64{CategoryFrequencyReg: 1}, d.Split)
}

func TestRenewableIntegration(t *testing.T) {
	r := &RenewableIntegration{}

	d := r.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 100, SolarKW: 150, WindKW: 30}))
	assert.InDelta(t, 80, d.PowerKW, 1e-9)

	// Renewables at 50% of demand: cover half of the 200 kW gap.
	d = r.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 400, SolarKW: 200}))
	assert.InDelta(t, -100, d.PowerKW, 1e-9)

	// At 90% coverage it idles.
	assert.Equal(t, Idle, r.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 100, SolarKW: 90})))
}

func TestTOUArbitrage(t *testing.T) {
	tou := &TOUArbitrage{}
	ctx := ctxAt(0.5, model.LoadSample{PricePerKWh: 0.06})
	ctx.MeanPrice = 0.10

	d := tou.Decide(ctx)
	assert.InDelta(t, 250, d.PowerKW, 1e-9)

	ctx.Price = 0.14
	d = tou.Decide(ctx)
	assert.InDelta(t, -250, d.PowerKW, 1e-9)

	ctx.Price = 0.12
	assert.Equal(t, Idle, tou.Decide(ctx))

	ctx.MeanPrice = 0
	assert.Equal(t, Idle, tou.Decide(ctx))
}

func TestSolarSelfConsumption(t *testing.T) {
	s := &SolarSelfConsumption{}

	d := s.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 50, SolarKW: 120}))
	assert.InDelta(t, 70, d.PowerKW, 1e-9)

	d = s.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 180, SolarKW: 20}))
	assert.InDelta(t, -160, d.PowerKW, 1e-9)
	assert.Equal(t, map[Category]float64{CategorySolarSelf: 1}, d.Split)

	// Wind does not count as solar here.
	d = s.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 100, WindKW: 100}))
	assert.InDelta(t, -100, d.PowerKW, 1e-9)

	assert.Equal(t, Idle, s.Decide(ctxAt(0.5, model.LoadSample{DemandKW: 10, SolarKW: 10})))
}

func TestHybrid(t *testing.T) {
	h := NewHybrid(500)
	ctx := ctxAt(0.5, model.LoadSample{DemandKW: 700, PricePerKWh: 0.20})
	ctx.MeanPrice = 0.10

	d := h.Decide(ctx)
	// TOU wants -250 and peak shaving -200; the sum is clipped to rated power.
	assert.InDelta(t, -250, d.PowerKW, 1e-9)
	assert.InDelta(t, 0.5, d.Split[CategoryTOUArbitrage], 1e-12)
	assert.InDelta(t, 0.5, d.Split[CategoryPeakShaving], 1e-12)
	assert.Equal(t, "hybrid(tou_arbitrage+peak_shaving)", h.Name())

	assert.Equal(t, Idle, (&Hybrid{}).Decide(ctx))
}

func TestSchedule(t *testing.T) {
	s, err := NewSchedule("22:00", "06:00", "17:00", "21:00", 100, 300)
	require.NoError(t, err)

	at := func(h int) model.LoadSample {
		return model.LoadSample{Timestamp: time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC)}
	}
	assert.InDelta(t, 100, s.Decide(ctxAt(0.5, at(23))).PowerKW, 1e-9)
	assert.InDelta(t, 100, s.Decide(ctxAt(0.5, at(2))).PowerKW, 1e-9)
	assert.InDelta(t, -250, s.Decide(ctxAt(0.5, at(18))).PowerKW, 1e-9)
	assert.Equal(t, Idle, s.Decide(ctxAt(0.5, at(12))))
	assert.Equal(t, Idle, s.Decide(ctxAt(0.5, at(21))))

	_, err = NewSchedule("25:00", "", "17:00", "", 1, 1)
	assert.Error(t, err)
}

func TestInWindow(t *testing.T) {
	assert.False(t, inWindow(600, 600, 600))
	assert.True(t, inWindow(600, 600, 601))
	assert.False(t, inWindow(601, 600, 601))
	assert.True(t, inWindow(30, 1380, 60))
	assert.True(t, inWindow(1400, 1380, 60))
	assert.False(t, inWindow(120, 1380, 60))
}

func TestBuild(t *testing.T) {
	b := testBattery()

	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{"peak_shaving", map[string]any{"threshold_kw": 300}, "peak_shaving"},
		{"arbitrage", nil, "arbitrage"},
		{"frequency_regulation", nil, "frequency_regulation"},
		{"renewable_integration", nil, "renewable_integration"},
		{"TOU_Arbitrage", nil, "tou_arbitrage"},
		{"solar_self_consumption", nil, "solar_self_consumption"},
		{"hybrid", nil, "hybrid(tou_arbitrage+peak_shaving)"},
		{"hybrid", map[string]any{"policies": []any{"arbitrage", "solar_self_consumption"}}, "hybrid(arbitrage+solar_self_consumption)"},
		{"schedule", nil, "schedule"},
		{"schedule", map[string]any{"charge_start": "bad"}, "none"},
		{"does_not_exist", nil, "none"},
		{"", nil, "none"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Build(tc.name, tc.params, b).Name())
		})
	}

	p := Build("peak_shaving", map[string]any{"threshold_kw": 300, "soc_min": 0.2}, b).(*PeakShaving)
	assert.Equal(t, 300.0, p.ThresholdKW)
	assert.Equal(t, 0.2, p.Band.Min)
}

func TestCatalogCoversBuild(t *testing.T) {
	b := testBattery()
	for _, info := range Catalog() {
		assert.NotEqual(t, "none", Build(info.Name, nil, b).Name(), info.Name)
	}
}
