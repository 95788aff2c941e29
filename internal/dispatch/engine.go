// Package dispatch steps a battery through an hourly load and price series
// under a control policy and keeps the per-hour ledger and value totals.
package dispatch

import (
	"fmt"
	"log/slog"
	"math"

	"bess-valuation/internal/battery"
	"bess-valuation/internal/model"
	"bess-valuation/internal/strategy"
	"bess-valuation/internal/tariff"
)

// MaxSteps caps a run at one year of hourly samples.
const MaxSteps = 8760

const stepHours = 1.0

// Options tune a run. The zero value prices each hour from the sample and
// credits no demand charge.
type Options struct {
	// Price overrides sample prices when set.
	Price tariff.PriceFunc
	// DemandChargeRate is $/kW-month credited for the largest discharge
	// reduction of net load in each month.
	DemandChargeRate float64
}

type Simulator struct {
	logger *slog.Logger
}

func New() *Simulator {
	return &Simulator{logger: slog.Default().With("component", "dispatch")}
}

// Run simulates samples in order. It only fails for an invalid battery; an
// empty series yields an empty result and a nil policy never moves the battery.
func (s *Simulator) Run(samples []model.LoadSample, b model.BatteryConfig, p strategy.Policy, opts Options) (*Result, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("battery config invalid: %w", err)
	}
	if p == nil {
		p = strategy.Noop{}
	}
	if len(samples) > MaxSteps {
		s.logger.Warn("sample series truncated", "samples", len(samples), "max_steps", MaxSteps)
		samples = samples[:MaxSteps]
	}

	st := newState(b)
	for _, c := range strategy.Categories() {
		st.Savings[c] = 0
	}
	res := &Result{Strategy: p.Name(), Steps: make([]StepRecord, 0, len(samples))}
	if len(samples) == 0 {
		res.Summary = Summary{SavingsByCategory: st.Savings}
		res.Final = *st
		return res, nil
	}

	prices := make([]float64, len(samples))
	meanPrice := 0.0
	for i, smp := range samples {
		prices[i] = smp.PricePerKWh
		if opts.Price != nil {
			ts := smp.Timestamp
			prices[i] = opts.Price(ts.Hour(), ts.Weekday(), ts.Month())
		}
		meanPrice += prices[i]
	}
	meanPrice /= float64(len(samples))

	acc := newAccumulator()
	for i, smp := range samples {
		dec := p.Decide(strategy.Context{
			Index:     i,
			Sample:    smp,
			SOCKWh:    st.SOCKWh,
			Battery:   b,
			Price:     prices[i],
			MeanPrice: meanPrice,
		})
		rec := s.step(st, b, smp, prices[i], dec)
		rec.Hour = i
		acc.add(rec)
		res.Steps = append(res.Steps, rec)
	}

	res.Summary = acc.summary(st, b, opts.DemandChargeRate)
	res.Final = *st
	s.logger.Debug("run complete",
		"strategy", res.Strategy,
		"hours", res.Summary.Hours,
		"total_savings", res.Summary.TotalSavings,
		"cycles", res.Summary.EquivalentFullCycles,
	)
	return res, nil
}

// step applies one decision. The request is clipped to rated power, the SoC
// change is clamped to the battery bounds and the realized power is derived
// back from the clamped change with the same efficiency, so stored energy and
// reported power always agree.
func (s *Simulator) step(st *State, b model.BatteryConfig, smp model.LoadSample, price float64, dec strategy.Decision) StepRecord {
	net := smp.NetLoadKW()
	req := dec.PowerKW
	if math.IsNaN(req) || math.IsInf(req, 0) {
		req = 0
	}
	power := math.Max(-b.PowerKW, math.Min(b.PowerKW, req))

	eff := 0.0
	if power != 0 {
		eff = battery.RoundTripEfficiency(b, st.SOCKWh/b.CapacityKWh, power)
		var delta float64
		if power > 0 {
			delta = power * stepHours * eff
		} else {
			delta = power * stepHours / eff
		}
		next := b.ClampEnergy(st.SOCKWh + delta)
		delta = next - st.SOCKWh
		if power > 0 {
			power = delta / (stepHours * eff)
		} else {
			power = delta * eff / stepHours
		}
		st.SOCKWh = next
	}

	savings := 0.0
	if power < 0 {
		savings = -power * stepHours * price
		for c, share := range normalizeSplit(dec.Split) {
			st.Savings[c] += savings * share
		}
	}
	st.CumulativeEnergyKWh += math.Abs(power) * stepHours
	st.CumulativeCycles += math.Abs(power) * stepHours / (2 * b.CapacityKWh)

	grid := net + power
	return StepRecord{
		Timestamp:          smp.Timestamp,
		LoadKW:             smp.DemandKW,
		SolarKW:            smp.SolarKW,
		WindKW:             smp.WindKW,
		NetLoadKW:          net,
		RequestedPowerKW:   req,
		BatteryPowerKW:     power,
		Action:             model.ActionFromPowerKW(power),
		Efficiency:         eff,
		SOC:                st.SOCKWh / b.CapacityKWh,
		SOCKWh:             st.SOCKWh,
		GridImportKW:       math.Max(grid, 0),
		GridExportKW:       math.Max(-grid, 0),
		PricePerKWh:        price,
		IncrementalSavings: savings,
	}
}

// normalizeSplit scales shares to sum to 1. Decisions without a usable split
// credit TOU arbitrage.
func normalizeSplit(split map[strategy.Category]float64) map[strategy.Category]float64 {
	sum := 0.0
	for _, v := range split {
		if v > 0 {
			sum += v
		}
	}
	if sum <= 0 {
		return map[strategy.Category]float64{strategy.CategoryTOUArbitrage: 1}
	}
	out := make(map[strategy.Category]float64, len(split))
	for c, v := range split {
		if v > 0 {
			out[c] = v / sum
		}
	}
	return out
}

type accumulator struct {
	hours      int
	socSum     float64
	charged    float64
	discharged float64
	peakNet    float64
	peakImport float64

	months   []string
	monthMax map[string]float64
}

func newAccumulator() *accumulator {
	return &accumulator{
		peakNet:    math.Inf(-1),
		peakImport: math.Inf(-1),
		monthMax:   map[string]float64{},
	}
}

func (a *accumulator) add(rec StepRecord) {
	a.hours++
	a.socSum += rec.SOC
	a.peakNet = math.Max(a.peakNet, rec.NetLoadKW)
	a.peakImport = math.Max(a.peakImport, rec.GridImportKW)

	month := rec.Timestamp.Format("2006-01")
	if _, ok := a.monthMax[month]; !ok {
		a.months = append(a.months, month)
		a.monthMax[month] = 0
	}
	switch {
	case rec.BatteryPowerKW > 0:
		a.charged += rec.BatteryPowerKW * stepHours
	case rec.BatteryPowerKW < 0:
		a.discharged += -rec.BatteryPowerKW * stepHours
		reduction := math.Min(-rec.BatteryPowerKW, math.Max(rec.NetLoadKW, 0))
		a.monthMax[month] = math.Max(a.monthMax[month], reduction)
	}
}

func (a *accumulator) summary(st *State, b model.BatteryConfig, demandRate float64) Summary {
	var credits []MonthlyCredit
	if demandRate > 0 {
		for _, m := range a.months {
			credit := a.monthMax[m] * demandRate
			if credit <= 0 {
				continue
			}
			credits = append(credits, MonthlyCredit{Month: m, MaxReductionKW: a.monthMax[m], Credit: credit})
			st.Savings[strategy.CategoryDemandCharge] += credit
		}
	}

	total := 0.0
	for _, v := range st.Savings {
		total += v
	}
	sum := Summary{
		SavingsByCategory:     st.Savings,
		TotalSavings:          total,
		EquivalentFullCycles:  st.CumulativeCycles,
		EnergyChargedKWh:      a.charged,
		EnergyDischargedKWh:   a.discharged,
		Hours:                 a.hours,
		MonthlyDemandCredits:  credits,
		PeakDemandReductionKW: math.Max(a.peakNet-a.peakImport, 0),
	}
	if a.hours > 0 {
		sum.AverageSOC = a.socSum / float64(a.hours)
		sum.CapacityFactor = a.discharged / (b.PowerKW * float64(a.hours) * stepHours)
	}
	return sum
}
