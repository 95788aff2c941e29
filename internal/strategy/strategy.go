// Package strategy holds the battery control policies. A policy sees one
// interval plus the battery state and returns a signed power request;
// the dispatch simulator enforces every physical limit afterwards.
package strategy

import (
	"math"

	"bess-valuation/internal/model"
)

// Category is a value stream that discharge savings are credited to.
type Category string

const (
	CategoryTOUArbitrage   Category = "tou_arbitrage"
	CategoryPeakShaving    Category = "peak_shaving"
	CategorySolarSelf      Category = "solar_self_consumption"
	CategoryDemandCharge   Category = "demand_charge"
	CategoryFrequencyReg   Category = "frequency_regulation"
	CategoryRenewableInteg Category = "renewable_integration"
)

// Categories lists every category in report order.
func Categories() []Category {
	return []Category{
		CategoryTOUArbitrage,
		CategoryPeakShaving,
		CategorySolarSelf,
		CategoryDemandCharge,
		CategoryFrequencyReg,
		CategoryRenewableInteg,
	}
}

// Context is what a policy may look at for one interval.
type Context struct {
	Index   int
	Sample  model.LoadSample
	SOCKWh  float64
	Battery model.BatteryConfig

	// Price is the effective $/kWh for this interval and MeanPrice the mean
	// over the whole run.
	Price     float64
	MeanPrice float64
}

// NetLoadKW is demand minus on-site renewables for this interval.
func (c Context) NetLoadKW() float64 { return c.Sample.NetLoadKW() }

// SOC is the state of charge as a fraction of capacity.
func (c Context) SOC() float64 {
	if c.Battery.CapacityKWh <= 0 {
		return 0
	}
	return c.SOCKWh / c.Battery.CapacityKWh
}

// Decision is a policy's request. PowerKW is positive to charge and negative
// to discharge. Split maps categories to the share of this interval's
// discharge savings they earn; shares should sum to 1.
type Decision struct {
	PowerKW float64
	Split   map[Category]float64
}

// Idle is the zero decision.
var Idle = Decision{}

func single(powerKW float64, c Category) Decision {
	return Decision{PowerKW: powerKW, Split: map[Category]float64{c: 1}}
}

// Policy decides battery power one interval at a time.
type Policy interface {
	Name() string
	Decide(ctx Context) Decision
}

// Band is an optional target SoC window as fractions of capacity. A zero
// field falls back to the battery's own bound.
type Band struct {
	Min float64 `json:"min,omitempty" yaml:"min"`
	Max float64 `json:"max,omitempty" yaml:"max"`
}

func (b Band) bounds(cfg model.BatteryConfig) (minKWh, maxKWh float64) {
	lo, hi := cfg.SOCMin, cfg.SOCMax
	if b.Min > 0 {
		lo = math.Max(lo, b.Min)
	}
	if b.Max > 0 {
		hi = math.Min(hi, b.Max)
	}
	return lo * cfg.CapacityKWh, hi * cfg.CapacityKWh
}

// headroom is the energy (kWh) that can still be stored inside the band.
func (b Band) headroom(ctx Context) float64 {
	_, hi := b.bounds(ctx.Battery)
	return math.Max(0, hi-ctx.SOCKWh)
}

// reserve is the energy (kWh) that can still be drawn inside the band.
func (b Band) reserve(ctx Context) float64 {
	lo, _ := b.bounds(ctx.Battery)
	return math.Max(0, ctx.SOCKWh-lo)
}

// Noop never moves the battery.
type Noop struct{}

func (Noop) Name() string            { return "none" }
func (Noop) Decide(Context) Decision { return Idle }
