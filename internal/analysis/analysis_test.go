package analysis

import (
	"math/rand"
	"testing"
	"time"

	"bess-valuation/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayOf(start time.Time, demand func(h int) float64) []model.LoadSample {
	out := make([]model.LoadSample, 24)
	for h := range out {
		out[h] = model.LoadSample{Timestamp: start.Add(time.Duration(h) * time.Hour), DemandKW: demand(h)}
	}
	return out
}

func twoShapeSeries(days int) []model.LoadSample {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []model.LoadSample
	for d := 0; d < days; d++ {
		level := 30.0
		if d%2 == 1 {
			level = 600
		}
		out = append(out, dayOf(start.AddDate(0, 0, d), func(int) float64 { return level })...)
	}
	return out
}

func TestDailyProfiles_DropsSparseDaysAndAveragesHours(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	samples := dayOf(start, func(h int) float64 { return float64(h) })
	// Second sample in hour 5 is averaged in.
	samples = append(samples, model.LoadSample{Timestamp: start.Add(5*time.Hour + 30*time.Minute), DemandKW: 15})
	// Sparse day with 10 hours.
	samples = append(samples, dayOf(start.AddDate(0, 0, 1), func(int) float64 { return 1 })[:10]...)

	days := DailyProfiles(samples)
	require.Len(t, days, 1)
	assert.Equal(t, start, days[0].Date)
	assert.InDelta(t, 10, days[0].Demand[5], 1e-9)
	assert.InDelta(t, 23, days[0].Demand[23], 1e-9)
}

func TestClusterLoadProfiles_SeparatesShapes(t *testing.T) {
	res := ClusterLoadProfiles(twoShapeSeries(10), 2, rand.New(rand.NewSource(7)))

	require.Equal(t, 2, res.K())
	require.Len(t, res.Assignments, 10)
	for i := 2; i < 10; i++ {
		assert.Equal(t, res.Assignments[i%2], res.Assignments[i], "day %d", i)
	}
	assert.NotEqual(t, res.Assignments[0], res.Assignments[1])
	assert.ElementsMatch(t, []string{"Low", "Peak"}, res.Labels)
	assert.Equal(t, []int{5, 5}, res.Sizes)
	assert.InDelta(t, 0, res.Inertia[len(res.Inertia)-1], 1e-9)
}

func TestClusterLoadProfiles_Bounds(t *testing.T) {
	series := twoShapeSeries(3)

	t.Run("k larger than days", func(t *testing.T) {
		res := ClusterLoadProfiles(series, 10, rand.New(rand.NewSource(1)))
		assert.Equal(t, 3, res.K())
	})
	t.Run("default k", func(t *testing.T) {
		res := ClusterLoadProfiles(twoShapeSeries(8), 0, rand.New(rand.NewSource(1)))
		assert.Equal(t, DefaultClusters, res.K())
	})
	t.Run("no days", func(t *testing.T) {
		res := ClusterLoadProfiles(nil, 3, nil)
		assert.Zero(t, res.K())
		assert.Empty(t, res.Assignments)
	})
	t.Run("iterations capped", func(t *testing.T) {
		res := ClusterLoadProfiles(series, 2, rand.New(rand.NewSource(3)))
		assert.LessOrEqual(t, res.Iterations, 50)
		assert.Len(t, res.Inertia, res.Iterations)
	})
}

func TestClusterLoadProfiles_DeterministicForSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	var series []model.LoadSample
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 20; d++ {
		series = append(series, dayOf(start.AddDate(0, 0, d), func(h int) float64 { return 100 + rng.Float64()*300 })...)
	}
	a := ClusterLoadProfiles(series, 4, rand.New(rand.NewSource(42)))
	b := ClusterLoadProfiles(series, 4, rand.New(rand.NewSource(42)))
	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.Centroids, b.Centroids)
}

func TestClusterLoadProfiles_SingleClusterIdenticalDays(t *testing.T) {
	start := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	var samples []model.LoadSample
	for d := 0; d < 6; d++ {
		samples = append(samples, dayOf(start.AddDate(0, 0, d), func(h int) float64 { return 100 + 10*float64(h) })...)
	}

	res := ClusterLoadProfiles(samples, 1, rand.New(rand.NewSource(3)))
	require.Equal(t, 1, res.K())
	assert.Equal(t, []int{6}, res.Sizes)
	assert.Len(t, res.Labels, 1)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, res.Assignments)
	require.NotEmpty(t, res.Inertia)
	assert.InDelta(t, 0, res.Inertia[len(res.Inertia)-1], 1e-9)
}

func TestClusterLoadProfiles_InertiaNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var samples []model.LoadSample
	for d := 0; d < 60; d++ {
		scale := 50 + 450*rng.Float64()
		samples = append(samples, dayOf(start.AddDate(0, 0, d), func(int) float64 { return scale * (0.5 + rng.Float64()) })...)
	}

	res := ClusterLoadProfiles(samples, 4, rand.New(rand.NewSource(5)))
	require.NotEmpty(t, res.Inertia)
	assert.Len(t, res.Inertia, res.Iterations)
	for i := 1; i < len(res.Inertia); i++ {
		assert.LessOrEqual(t, res.Inertia[i], res.Inertia[i-1]+1e-6, "iteration %d", i)
	}
}

func TestClusterResult_Clone(t *testing.T) {
	res := ClusterLoadProfiles(twoShapeSeries(4), 2, rand.New(rand.NewSource(1)))
	cp := res.Clone()
	require.Equal(t, res, cp)
	cp.Centroids[0][0] = -1
	cp.Days[0].Demand[0] = -1
	assert.NotEqual(t, -1.0, res.Centroids[0][0])
	assert.NotEqual(t, -1.0, res.Days[0].Demand[0])
	assert.Equal(t, ClusterResult{}, ClusterResult{}.Clone())
}

func TestLabelForPeak(t *testing.T) {
	assert.Equal(t, "Low", LabelForPeak(49.9))
	assert.Equal(t, "Medium", LabelForPeak(50))
	assert.Equal(t, "High", LabelForPeak(200))
	assert.Equal(t, "Peak", LabelForPeak(500))
}

func TestAnalyzePeakDemandPatterns(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	samples := dayOf(start, func(h int) float64 {
		if h >= 12 && h < 18 {
			return 400 + float64(h)
		}
		return 100
	})
	samples = append(samples, model.LoadSample{Timestamp: time.Date(2024, 12, 5, 3, 0, 0, 0, time.UTC), DemandKW: 50})

	p := AnalyzePeakDemandPatterns(samples, 0)
	assert.Equal(t, []int{17, 16, 15, 14, 13, 12}, p.PeakHours)
	assert.Equal(t, 417.0, p.MaxDemandKW)
	assert.Equal(t, 417.0, p.SeasonalPeaksKW[6])
	assert.Equal(t, 50.0, p.SeasonalPeaksKW[11])
	assert.Equal(t, DefaultDemandChargeRate, p.DemandChargeRate)
	assert.InDelta(t, 417*12*12, p.DemandChargeExposure, 1e-9)
	assert.InDelta(t, 75, p.HourlyAverageKW[3], 1e-9)
}

func TestAnalyzePeakDemandPatterns_TiesByHour(t *testing.T) {
	samples := dayOf(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), func(int) float64 { return 10 })
	p := AnalyzePeakDemandPatterns(samples, 20)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, p.PeakHours)
	assert.InDelta(t, 10*12*20, p.DemandChargeExposure, 1e-9)
}

func TestComputePriceStats(t *testing.T) {
	var samples []model.LoadSample
	for i := 0; i <= 100; i++ {
		samples = append(samples, model.LoadSample{PricePerKWh: float64(i) / 100})
	}
	p := ComputePriceStats(samples)
	assert.Equal(t, 101, p.Count)
	assert.InDelta(t, 0, p.Min, 1e-12)
	assert.InDelta(t, 1, p.Max, 1e-12)
	assert.InDelta(t, 0.5, p.Mean, 1e-12)
	// Interpolated empirical CDF: p05 sits between the 5th and 6th order stats.
	assert.InDelta(t, 0.0405, p.P05, 1e-9)
	assert.InDelta(t, 0.9495, p.P95, 1e-9)
	assert.InDelta(t, 0.909, p.Spread, 1e-9)

	assert.Equal(t, PriceStats{}, ComputePriceStats(nil))
}

func TestPercentile(t *testing.T) {
	vals := []float64{4, 1, 3, 2}
	assert.InDelta(t, 2, Percentile(vals, 0.5), 1e-12)
	assert.InDelta(t, 2.5, Percentile(vals, 0.625), 1e-12)
	assert.Equal(t, 1.0, Percentile(vals, 0))
	assert.Equal(t, 4.0, Percentile(vals, 1))
	assert.Equal(t, 4.0, Percentile(vals, 1.5))
	assert.Zero(t, Percentile(nil, 0.5))
	assert.Equal(t, []float64{4, 1, 3, 2}, vals)
}

func TestArbitrageUpperBound(t *testing.T) {
	b := model.BatteryConfig{
		CapacityKWh: 100, PowerKW: 50, EfficiencyCharge: 1, EfficiencyDischarge: 1,
		SOCMin:      0, SOCMax: 1,
	}
	prices := []float64{0.10, 0.10, 0.30, 0.30}
	samples := make([]model.LoadSample, len(prices))
	for i, p := range prices {
		samples[i] = model.LoadSample{PricePerKWh: p}
	}
	// Start at 50 kWh: buy 50 at 0.10, sell 100 at 0.30.
	assert.InDelta(t, 100*0.30-50*0.10, ArbitrageUpperBound(samples, b), 1e-9)

	flat := []model.LoadSample{{PricePerKWh: 0.2}, {PricePerKWh: 0.2}}
	// Selling the starting energy is still worth something.
	assert.InDelta(t, 50*0.2, ArbitrageUpperBound(flat, b), 1e-9)

	assert.Zero(t, ArbitrageUpperBound(nil, b))
}
