package strategy

import "math"

// Default thresholds.
const (
	DefaultPeakThresholdKW = 100.0
	peakRechargeRatio      = 0.7

	DefaultBuyBelow  = 0.08
	DefaultSellAbove = 0.15

	DefaultRegulationTarget   = 0.5
	DefaultRegulationDeadband = 0.05
	regulationPowerFraction   = 0.5

	renewableCoverageRatio = 0.8
	renewableShortfallPart = 0.5

	DefaultTOUChargeRatio    = 0.7
	DefaultTOUDischargeRatio = 1.3
)

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }

// PeakShaving discharges above ThresholdKW of net load and recharges once
// net load falls under 70% of it.
type PeakShaving struct {
	ThresholdKW float64
	Band        Band
}

func (p *PeakShaving) Name() string { return "peak_shaving" }

func (p *PeakShaving) Decide(ctx Context) Decision {
	thr := p.ThresholdKW
	if thr <= 0 {
		thr = DefaultPeakThresholdKW
	}
	net := ctx.NetLoadKW()
	rated := ctx.Battery.PowerKW

	if reserve := p.Band.reserve(ctx); net > thr && reserve > 0 {
		return single(-min3(net-thr, rated, reserve), CategoryPeakShaving)
	}
	recharge := peakRechargeRatio * thr
	if headroom := p.Band.headroom(ctx); net < recharge && headroom > 0 {
		return single(min3(recharge-net, rated, headroom), CategoryPeakShaving)
	}
	return Idle
}

// Arbitrage buys at or below BuyBelow and sells at or above SellAbove,
// always at full rated power. A zero SellAbove selects both defaults.
type Arbitrage struct {
	BuyBelow  float64
	SellAbove float64
	Band      Band
}

func (a *Arbitrage) Name() string { return "arbitrage" }

func (a *Arbitrage) Decide(ctx Context) Decision {
	buy, sell := a.BuyBelow, a.SellAbove
	if sell <= 0 {
		buy, sell = DefaultBuyBelow, DefaultSellAbove
	}
	rated := ctx.Battery.PowerKW
	if headroom := a.Band.headroom(ctx); ctx.Price <= buy && headroom > 0 {
		return single(math.Min(rated, headroom), CategoryTOUArbitrage)
	}
	if reserve := a.Band.reserve(ctx); ctx.Price >= sell && reserve > 0 {
		return single(-math.Min(rated, reserve), CategoryTOUArbitrage)
	}
	return Idle
}

// FrequencyRegulation holds SoC near TargetSOC. Outside the deadband it moves
// at half rated power back toward the target, never past it.
type FrequencyRegulation struct {
	TargetSOC float64
	Deadband  float64
}

func (f *FrequencyRegulation) Name() string { return "frequency_regulation" }

func (f *FrequencyRegulation) Decide(ctx Context) Decision {
	target := f.TargetSOC
	if target <= 0 {
		target = DefaultRegulationTarget
	}
	band := f.Deadband
	if band <= 0 {
		band = DefaultRegulationDeadband
	}
	step := regulationPowerFraction * ctx.Battery.PowerKW
	targetKWh := target * ctx.Battery.CapacityKWh

	switch dev := ctx.SOC() - target; {
	case dev > band:
		return single(-math.Min(step, ctx.SOCKWh-targetKWh), CategoryFrequencyReg)
	case dev < -band:
		return single(math.Min(step, targetKWh-ctx.SOCKWh), CategoryFrequencyReg)
	}
	return Idle
}

// RenewableIntegration soaks up surplus solar and wind and covers half of
// the shortfall whenever renewables meet less than 80% of demand.
type RenewableIntegration struct {
	Band Band
}

func (r *RenewableIntegration) Name() string { return "renewable_integration" }

func (r *RenewableIntegration) Decide(ctx Context) Decision {
	rated := ctx.Battery.PowerKW
	renew := ctx.Sample.RenewableKW()
	demand := ctx.Sample.DemandKW

	if excess := renew - demand; excess > 0 {
		if headroom := r.Band.headroom(ctx); headroom > 0 {
			return single(min3(excess, rated, headroom), CategoryRenewableInteg)
		}
		return Idle
	}
	if renew < renewableCoverageRatio*demand {
		if reserve := r.Band.reserve(ctx); reserve > 0 {
			want := renewableShortfallPart * (demand - renew)
			return single(-min3(want, rated, reserve), CategoryRenewableInteg)
		}
	}
	return Idle
}

// TOUArbitrage trades against the run's mean price: charge under
// ChargeRatio*mean, discharge over DischargeRatio*mean.
type TOUArbitrage struct {
	ChargeRatio    float64
	DischargeRatio float64
	Band           Band
}

func (t *TOUArbitrage) Name() string { return "tou_arbitrage" }

func (t *TOUArbitrage) Decide(ctx Context) Decision {
	if ctx.MeanPrice <= 0 {
		return Idle
	}
	lo, hi := t.ChargeRatio, t.DischargeRatio
	if lo <= 0 {
		lo = DefaultTOUChargeRatio
	}
	if hi <= 0 {
		hi = DefaultTOUDischargeRatio
	}
	rated := ctx.Battery.PowerKW
	if headroom := t.Band.headroom(ctx); ctx.Price < lo*ctx.MeanPrice && headroom > 0 {
		return single(math.Min(rated, headroom), CategoryTOUArbitrage)
	}
	if reserve := t.Band.reserve(ctx); ctx.Price > hi*ctx.MeanPrice && reserve > 0 {
		return single(-math.Min(rated, reserve), CategoryTOUArbitrage)
	}
	return Idle
}

// SolarSelfConsumption stores surplus solar and serves load from the battery
// when solar falls short.
type SolarSelfConsumption struct {
	Band Band
}

func (s *SolarSelfConsumption) Name() string { return "solar_self_consumption" }

func (s *SolarSelfConsumption) Decide(ctx Context) Decision {
	rated := ctx.Battery.PowerKW
	gap := ctx.Sample.SolarKW - ctx.Sample.DemandKW
	switch {
	case gap > 0:
		if headroom := s.Band.headroom(ctx); headroom > 0 {
			return single(min3(gap, rated, headroom), CategorySolarSelf)
		}
	case gap < 0:
		if reserve := s.Band.reserve(ctx); reserve > 0 {
			return single(-min3(-gap, rated, reserve), CategorySolarSelf)
		}
	}
	return Idle
}
