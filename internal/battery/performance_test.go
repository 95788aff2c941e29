package battery

import (
	"math"
	"testing"

	"bess-valuation/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBattery() model.BatteryConfig {
	return model.BatteryConfig{
		CapacityKWh:                1000,
		PowerKW:                    250,
		EfficiencyCharge:           0.96,
		EfficiencyDischarge:        0.94,
		VoltageNominal:             800,
		SOCMin:                     0.1,
		SOCMax:                     0.9,
		DegradationRatePerCycle:    0.0001,
		CalendarDegradationPerYear: 0.02,
	}
}

func TestSOCFromVoltage(t *testing.T) {
	b := testBattery()

	assert.Equal(t, b.SOCMin, SOCFromVoltage(b, 0))
	assert.Equal(t, b.SOCMin, SOCFromVoltage(b, 0.85*800))
	assert.Equal(t, b.SOCMax, SOCFromVoltage(b, 1.02*800))
	assert.Equal(t, b.SOCMax, SOCFromVoltage(b, 2000))

	// Window midpoint sits on the sigmoid midpoint.
	mid := (0.85*800 + 1.02*800) / 2
	assert.InDelta(t, 0.5, SOCFromVoltage(b, mid), 1e-9)

	prev := SOCFromVoltage(b, 0.85*800)
	for v := 0.85 * 800; v <= 1.02*800; v += 1 {
		soc := SOCFromVoltage(b, v)
		assert.GreaterOrEqual(t, soc, prev, "non-monotonic at %.1fV", v)
		assert.GreaterOrEqual(t, soc, b.SOCMin)
		assert.LessOrEqual(t, soc, b.SOCMax)
		prev = soc
	}
}

func TestSOCFromVoltage_NoNominal(t *testing.T) {
	b := testBattery()
	b.VoltageNominal = 0
	assert.Equal(t, b.SOCMin, SOCFromVoltage(b, 700))
}

func TestRoundTripEfficiency_Bands(t *testing.T) {
	b := testBattery()

	tests := []struct {
		name    string
		soc     float64
		powerKW float64
		want    float64
	}{
		{"charge healthy low power", 0.5, 100, 0.96 * 1.0 * 0.98},
		{"discharge healthy low power", 0.5, -100, 0.94 * 1.0 * 0.98},
		{"charge healthy mid power", 0.5, 150, 0.96 * 1.0 * 0.92},
		{"charge at 80% rated", 0.5, 200, 0.96 * 1.0 * 0.92},
		{"discharge high power", 0.5, -240, 0.94 * 1.0 * 0.85},
		{"low soc band", 0.15, -100, 0.94 * 0.95 * 0.98},
		{"high soc band", 0.85, 100, 0.96 * 0.95 * 0.98},
		{"extreme low soc", 0.05, -100, 0.94 * 0.90 * 0.98},
		{"extreme high soc", 0.95, 100, 0.96 * 0.90 * 0.98},
		{"zero power uses discharge base", 0.5, 0, 0.94 * 1.0 * 0.98},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, RoundTripEfficiency(b, tc.soc, tc.powerKW), 1e-12)
		})
	}
}

func TestRoundTripEfficiency_AlwaysInUnitInterval(t *testing.T) {
	b := testBattery()
	for soc := 0.0; soc <= 1.0; soc += 0.01 {
		for p := -400.0; p <= 400; p += 10 {
			if p == 0 {
				continue
			}
			eff := RoundTripEfficiency(b, soc, p)
			require.Greater(t, eff, 0.0)
			require.LessOrEqual(t, eff, 1.0)
		}
	}
}

func TestRoundTripEfficiency_Floor(t *testing.T) {
	b := testBattery()
	b.EfficiencyDischarge = 0.001
	assert.Equal(t, MinEfficiency, RoundTripEfficiency(b, 0.5, -10))
}

func TestDegrade(t *testing.T) {
	b := testBattery()

	t.Run("fresh battery", func(t *testing.T) {
		d := Degrade(b, 0, 0, DefaultTemperatureC)
		assert.InDelta(t, 100, d.CapacityRetentionPct, 1e-9)
		assert.InDelta(t, 0, d.ResistanceIncreasePct, 1e-9)
		assert.InDelta(t, 0, d.RemainingUsefulLifeYears, 1e-9)
	})

	t.Run("cross term", func(t *testing.T) {
		d := Degrade(b, 500, 2, DefaultTemperatureC)
		cycle := 500 * 0.0001
		calendar := 2 * 0.02
		total := cycle + calendar + 0.1*cycle*calendar
		assert.InDelta(t, total, d.TotalDegradation, 1e-12)
		assert.InDelta(t, (1-total)*100, d.CapacityRetentionPct, 1e-9)
		assert.InDelta(t, total*200, d.ResistanceIncreasePct, 1e-9)

		annual := total * 100 / 2
		assert.InDelta(t, ((1-total)*100-80)/annual, d.RemainingUsefulLifeYears, 1e-9)
	})

	t.Run("temperature accelerates calendar ageing", func(t *testing.T) {
		cool := Degrade(b, 0, 3, 25)
		hot := Degrade(b, 0, 3, 35)
		assert.Less(t, hot.CapacityRetentionPct, cool.CapacityRetentionPct)
		assert.InDelta(t, 3*0.02*math.Exp(10*0.03), hot.TotalDegradation, 1e-12)
	})

	t.Run("retention floor", func(t *testing.T) {
		d := Degrade(b, 100000, 30, 40)
		assert.Equal(t, 50.0, d.CapacityRetentionPct)
		assert.Equal(t, 0.0, d.RemainingUsefulLifeYears)
	})

	t.Run("negative inputs clamp", func(t *testing.T) {
		d := Degrade(b, -10, -1, 25)
		assert.InDelta(t, 100, d.CapacityRetentionPct, 1e-9)
	})
}
