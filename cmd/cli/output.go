package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"bess-valuation/internal/analysis"
	"bess-valuation/internal/battery"
	"bess-valuation/internal/dispatch"
	"bess-valuation/internal/forecast"
	"bess-valuation/internal/optimize"
	"bess-valuation/internal/strategy"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func sortedCategories(m map[strategy.Category]float64) []strategy.Category {
	out := make([]strategy.Category, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func printSummary(name string, s dispatch.Summary) {
	tw := newTable()
	fmt.Fprintf(tw, "Strategy\t%s\n", name)
	fmt.Fprintf(tw, "Hours\t%d\n", s.Hours)
	fmt.Fprintf(tw, "Total savings\t$%.2f\n", s.TotalSavings)
	for _, c := range sortedCategories(s.SavingsByCategory) {
		fmt.Fprintf(tw, "  %s\t$%.2f\n", c, s.SavingsByCategory[c])
	}
	fmt.Fprintf(tw, "Equivalent full cycles\t%.2f\n", s.EquivalentFullCycles)
	fmt.Fprintf(tw, "Capacity factor\t%.3f\n", s.CapacityFactor)
	fmt.Fprintf(tw, "Average SOC\t%.3f\n", s.AverageSOC)
	fmt.Fprintf(tw, "Peak demand reduction\t%.1f kW\n", s.PeakDemandReductionKW)
	fmt.Fprintf(tw, "Energy charged / discharged\t%.1f / %.1f kWh\n", s.EnergyChargedKWh, s.EnergyDischargedKWh)
	for _, m := range s.MonthlyDemandCredits {
		fmt.Fprintf(tw, "  demand credit %s\t$%.2f (%.1f kW)\n", m.Month, m.Credit, m.MaxReductionKW)
	}
	tw.Flush()
}

func printReport(r *optimize.Report) {
	if r.Simulation != nil {
		printSummary(r.Strategy, r.Simulation.Summary)
		fmt.Println()
	}
	tw := newTable()
	fmt.Fprintf(tw, "Annualization factor\t%.3f\n", r.AnnualizationFactor)
	fmt.Fprintf(tw, "Annual savings\t$%.2f\n", r.AnnualSavings)
	fmt.Fprintf(tw, "Annual cycles\t%.1f\n", r.AnnualCycles)
	fmt.Fprintf(tw, "Average DoD / temperature\t%.2f / %.1f C\n", r.AverageDoD, r.AverageTempC)
	fmt.Fprintf(tw, "Arbitrage upper bound\t$%.2f\n", r.ArbitrageUpperBound)
	fmt.Fprintf(tw, "Load clusters\t%d (%s)\n", r.Clusters.K(), strings.Join(r.Clusters.Labels, ", "))
	fmt.Fprintf(tw, "Peak hours\t%v\n", r.Peaks.PeakHours)
	fmt.Fprintf(tw, "Demand charge exposure\t$%.2f\n", r.Peaks.DemandChargeExposure)
	fmt.Fprintf(tw, "State of health (1y)\t%.2f%% (EOL %.1f y)\n", r.Health.SOHPct, r.Health.EOLYears)
	if n := len(r.Degradation.Years); n > 0 {
		last := r.Degradation.Years[n-1]
		fmt.Fprintf(tw, "Capacity after %d y (%s)\t%.1f%% warranty=%t\n", last.Year, r.Degradation.Chemistry, last.CapacityPctRemaining, r.Degradation.WarrantyCompliant)
	}
	fmt.Fprintf(tw, "Sizing\t%.0f kWh / %.0f kW\n", r.Sizing.CapacityKWh, r.Sizing.PowerKW)
	fmt.Fprintf(tw, "CAPEX\t$%.2f\n", r.ROI.CAPEX)
	fmt.Fprintf(tw, "ROI (%d y)\t%.1f%% net $%.2f\n", r.ROI.Years, r.ROI.ROIPct, r.ROI.NetBenefit)
	if r.ROI.PaybackYears > 0 {
		fmt.Fprintf(tw, "Payback\t%.1f years\n", r.ROI.PaybackYears)
	} else {
		fmt.Fprintf(tw, "Payback\tnever\n")
	}
	tw.Flush()
}

func printComparison(cs []optimize.Comparison) {
	tw := newTable()
	fmt.Fprintln(tw, "RANK\tSTRATEGY\tANNUAL SAVINGS\tANNUAL CYCLES\tROI %\tPAYBACK (Y)")
	for i, c := range cs {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.1f\t%.1f\t%.1f\n", i+1, c.Strategy, c.AnnualSavings, c.AnnualCycles, c.ROI.ROIPct, c.ROI.PaybackYears)
	}
	tw.Flush()
}

func printMonteCarlo(r *optimize.MonteCarloResult) {
	tw := newTable()
	fmt.Fprintf(tw, "Strategy\t%s\n", r.Strategy)
	fmt.Fprintf(tw, "Runs\t%d\n", r.Runs)
	fmt.Fprintf(tw, "Mean annual savings\t$%.2f (sd %.2f)\n", r.Mean, r.StdDev)
	fmt.Fprintf(tw, "P10 / P50 / P90\t$%.2f / $%.2f / $%.2f\n", r.P10, r.P50, r.P90)
	tw.Flush()
}

func printClusters(r analysis.ClusterResult) {
	tw := newTable()
	fmt.Fprintln(tw, "CLUSTER\tLABEL\tDAYS\tPEAK KW\tINERTIA")
	for i, c := range r.Centroids {
		peak := 0.0
		for _, v := range c {
			peak = max(peak, v)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\t%.1f\n", i, r.Labels[i], r.Sizes[i], peak, r.Inertia[i])
	}
	tw.Flush()
	fmt.Printf("%d days, %d iterations\n", len(r.Days), r.Iterations)
}

func printPeaks(p analysis.PeakPatterns, s analysis.PriceStats, upper float64) {
	tw := newTable()
	fmt.Fprintf(tw, "Max demand\t%.1f kW\n", p.MaxDemandKW)
	fmt.Fprintf(tw, "Peak hours\t%v\n", p.PeakHours)
	fmt.Fprintf(tw, "Demand charge exposure\t$%.2f/month at $%.2f/kW\n", p.DemandChargeExposure, p.DemandChargeRate)
	fmt.Fprintf(tw, "Seasonal peaks (Jan..Dec)\t%s\n", joinFloats(p.SeasonalPeaksKW[:]))
	fmt.Fprintf(tw, "Prices min/mean/max\t%.4f / %.4f / %.4f $/kWh\n", s.Min, s.Mean, s.Max)
	fmt.Fprintf(tw, "Price spread P95-P05\t%.4f $/kWh\n", s.Spread)
	fmt.Fprintf(tw, "Arbitrage upper bound\t$%.2f\n", upper)
	tw.Flush()
}

func printForecast(f forecast.Forecast) {
	tw := newTable()
	fmt.Fprintln(tw, "TIME\tDEMAND KW\tLOWER\tUPPER")
	for _, p := range f.Points {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\n", p.Timestamp.Format("2006-01-02 15:04"), p.DemandKW, p.LowerKW, p.UpperKW)
	}
	tw.Flush()
	fmt.Printf("model mse=%.2f epochs=%d\n", f.Model.MSE, f.Model.Epochs)
}

func printTrajectory(t battery.Trajectory) {
	tw := newTable()
	fmt.Fprintln(tw, "YEAR\tCAPACITY %\tCYCLES\tANNUAL FADE %")
	for _, y := range t.Years {
		fmt.Fprintf(tw, "%d\t%.2f\t%.0f\t%.3f\n", y.Year, y.CapacityPctRemaining, y.EffectiveCyclesToDate, y.AnnualDegradationPct)
	}
	tw.Flush()
	if t.EndOfLifeYear > 0 {
		fmt.Printf("end of life (70%%) in year %d; ", t.EndOfLifeYear)
	}
	fmt.Printf("warranty compliant: %t\n", t.WarrantyCompliant)
}

func printCatalog(cat []strategy.Info) {
	for _, info := range cat {
		fmt.Printf("%s\n  %s\n", info.Name, info.Description)
		for _, p := range info.Params {
			if p.Default != nil {
				fmt.Printf("    %-18s %s (default %v)\n", p.Name, p.Description, p.Default)
			} else {
				fmt.Printf("    %-18s %s\n", p.Name, p.Description)
			}
		}
	}
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%.0f", v)
	}
	return strings.Join(parts, " ")
}
