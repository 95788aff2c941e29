package forecast

import "math"

const (
	activationEnergyOverR = 2500.0 // K
	referenceTempK        = 298.15
	dodExponent           = 1.5
	defaultDoD            = 0.8

	cycleFadeAtRated  = 0.2
	ratedCycles       = 5000.0
	calendarFadePerYr = 0.02
	crossTermWeight   = 0.1
	endOfLifeSOHPct   = 80.0
	minEOLYears       = 10.0
	maxEOLYears       = 25.0
)

// Health is a predicted state of health for a battery.
type Health struct {
	SOHPct                    float64 `json:"soh_pct"`
	EOLYears                  float64 `json:"eol_years"`
	DegradationRatePctPerYear float64 `json:"degradation_rate_pct_per_year"`
}

// PredictBatteryHealth estimates state of health from cycle count, age,
// average temperature and depth of discharge. Temperature scales ageing with
// an Arrhenius factor around 25 C and depth of discharge with DoD^1.5. End of
// life is where SOH reaches 80%, clamped to 10..25 years.
func PredictBatteryHealth(cycles, ageYears, avgTempC, avgDoD float64) Health {
	cycles = math.Max(cycles, 0)
	ageYears = math.Max(ageYears, 0)
	if avgDoD <= 0 {
		avgDoD = defaultDoD
	}
	avgDoD = math.Min(avgDoD, 1)

	tempFactor := math.Exp(activationEnergyOverR * (1/referenceTempK - 1/(avgTempC+273.15)))
	dodFactor := math.Pow(avgDoD, dodExponent)

	cycleFade := cycleFadeAtRated * cycles / ratedCycles * dodFactor
	calendarFade := calendarFadePerYr * ageYears * tempFactor
	total := cycleFade + calendarFade + crossTermWeight*cycleFade*calendarFade

	soh := math.Max(0, 100*(1-total))
	h := Health{SOHPct: soh, EOLYears: maxEOLYears}
	if ageYears > 0 {
		h.DegradationRatePctPerYear = total * 100 / ageYears
	}
	if h.DegradationRatePctPerYear > 0 {
		eol := ageYears + (soh-endOfLifeSOHPct)/h.DegradationRatePctPerYear
		h.EOLYears = math.Min(maxEOLYears, math.Max(minEOLYears, eol))
	}
	return h
}
