// Package finance prices a battery project with a fixed CAPEX heuristic and
// a simple undiscounted return over a fixed horizon.
package finance

import "github.com/shopspring/decimal"

// DefaultYears is the ROI horizon.
const DefaultYears = 10

var (
	capexPerKWh = decimal.NewFromInt(200)
	capexPerKW  = decimal.NewFromInt(150)
	hundred     = decimal.NewFromInt(100)
)

// CAPEX is $200 per kWh of capacity plus $150 per kW of power.
func CAPEX(capacityKWh, powerKW float64) decimal.Decimal {
	return capexPerKWh.Mul(decimal.NewFromFloat(capacityKWh)).
		Add(capexPerKW.Mul(decimal.NewFromFloat(powerKW)))
}

// ROI is a simple return summary. Money is rounded to cents.
type ROI struct {
	Years         int     `json:"years"`
	CAPEX         float64 `json:"capex"`
	AnnualSavings float64 `json:"annual_savings"`
	TotalSavings  float64 `json:"total_savings"`
	NetBenefit    float64 `json:"net_benefit"`
	ROIPct        float64 `json:"roi_pct"`
	PaybackYears  float64 `json:"payback_years"` // 0 when savings never pay back
}

// SimpleROI totals annualSavings over years (DefaultYears when <= 0)
// against capex.
func SimpleROI(capex decimal.Decimal, annualSavings float64, years int) ROI {
	if years <= 0 {
		years = DefaultYears
	}
	annual := decimal.NewFromFloat(annualSavings)
	total := annual.Mul(decimal.NewFromInt(int64(years)))
	net := total.Sub(capex)

	r := ROI{
		Years:         years,
		CAPEX:         capex.Round(2).InexactFloat64(),
		AnnualSavings: annual.Round(2).InexactFloat64(),
		TotalSavings:  total.Round(2).InexactFloat64(),
		NetBenefit:    net.Round(2).InexactFloat64(),
	}
	if capex.IsPositive() {
		r.ROIPct = net.Div(capex).Mul(hundred).Round(2).InexactFloat64()
	}
	if annual.IsPositive() {
		r.PaybackYears = capex.Div(annual).Round(2).InexactFloat64()
	}
	return r
}
