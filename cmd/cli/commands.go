package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bess-valuation/internal/analysis"
	"bess-valuation/internal/battery"
	"bess-valuation/internal/dispatch"
	"bess-valuation/internal/forecast"
	"bess-valuation/internal/optimize"
	"bess-valuation/internal/strategy"

	"github.com/spf13/cobra"
)

func simulateCmd(g *globals) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run hourly dispatch for one strategy and write the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := g.loadInputs(cmd.Context())
			if err != nil {
				return err
			}
			b := in.cfg.Battery
			policy := strategy.Build(in.cfg.Strategy.Name, in.cfg.Strategy.Params, b)
			res, err := dispatch.New().Run(in.samples, b, policy, dispatch.Options{
				Price:            in.price,
				DemandChargeRate: in.cfg.Optimization.DemandChargeRate,
			})
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return err
				}
				if err := dispatch.WriteLedgerCSV(outPath, res); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", len(res.Steps), outPath)
			}
			if g.jsonOut {
				return printJSON(res.Summary)
			}
			printSummary(res.Strategy, res.Summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the hourly ledger CSV to this path")
	return cmd
}

func optimizeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Full valuation: analysis, forecast, simulation, degradation and ROI",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := g.loadInputs(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := newEngine(in.cfg).Run(cmd.Context(), optimize.Request{
				Samples:  in.samples,
				Battery:  in.cfg.Battery,
				Strategy: in.cfg.Strategy,
				Price:    in.price,
			})
			if err != nil {
				return err
			}
			if g.jsonOut {
				if rep.Simulation != nil {
					rep.Simulation.Steps = nil
				}
				return printJSON(rep)
			}
			printReport(rep)
			return nil
		},
	}
}

func compareCmd(g *globals) *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Simulate several strategies on the same inputs and rank them",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := g.loadInputs(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				for _, info := range strategy.Catalog() {
					if info.Name != strategy.NameSchedule {
						names = append(names, info.Name)
					}
				}
			}
			specs := make([]optimize.StrategySpec, len(names))
			for i, n := range names {
				specs[i] = optimize.StrategySpec{Name: strings.TrimSpace(n)}
				if specs[i].Name == in.cfg.Strategy.Name {
					specs[i].Params = in.cfg.Strategy.Params
				}
			}
			cs, err := newEngine(in.cfg).CompareStrategies(cmd.Context(), in.samples, in.cfg.Battery, specs, in.price)
			if err != nil {
				return err
			}
			cs = optimize.RankByAnnualSavings(cs)
			if g.jsonOut {
				return printJSON(cs)
			}
			printComparison(cs)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&names, "strategies", nil, "comma-separated strategy names (default: all)")
	return cmd
}

func monteCarloCmd(g *globals) *cobra.Command {
	req := optimize.MonteCarloRequest{}
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "Distribution of annual savings under noisy load and prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := g.loadInputs(cmd.Context())
			if err != nil {
				return err
			}
			req.Samples = in.samples
			req.Battery = in.cfg.Battery
			req.Strategy = in.cfg.Strategy
			req.Price = in.price
			res, err := newEngine(in.cfg).MonteCarlo(cmd.Context(), req)
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(res)
			}
			printMonteCarlo(res)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&req.Runs, "runs", optimize.DefaultMonteCarloRuns, "number of scenarios")
	f.Float64Var(&req.LoadSigma, "load-sigma", optimize.DefaultSigma, "relative std dev of demand noise")
	f.Float64Var(&req.PriceSigma, "price-sigma", optimize.DefaultSigma, "relative std dev of price noise")
	f.Int64Var(&req.Seed, "mc-seed", 1, "base seed; run i uses seed+i")
	return cmd
}

func clusterCmd(g *globals) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Group daily load shapes with k-means",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := g.loadInputs(cmd.Context())
			if err != nil {
				return err
			}
			e := newEngine(in.cfg)
			res := e.Cluster(in.samples, k, e.Options().Seed)
			if g.jsonOut {
				return printJSON(res)
			}
			printClusters(res)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", analysis.DefaultClusters, "number of clusters")
	return cmd
}

func peaksCmd(g *globals) *cobra.Command {
	var rate float64
	cmd := &cobra.Command{
		Use:   "peaks",
		Short: "Hourly and seasonal peak demand, demand charge exposure and price spread",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := g.loadInputs(cmd.Context())
			if err != nil {
				return err
			}
			if rate <= 0 {
				rate = in.cfg.Optimization.DemandChargeRate
			}
			out := struct {
				Peaks               analysis.PeakPatterns `json:"peaks"`
				Prices              analysis.PriceStats   `json:"prices"`
				ArbitrageUpperBound float64               `json:"arbitrage_upper_bound"`
			}{
				Peaks:               analysis.AnalyzePeakDemandPatterns(in.samples, rate),
				Prices:              analysis.ComputePriceStats(in.samples),
				ArbitrageUpperBound: analysis.ArbitrageUpperBound(in.samples, in.cfg.Battery),
			}
			if g.jsonOut {
				return printJSON(out)
			}
			printPeaks(out.Peaks, out.Prices, out.ArbitrageUpperBound)
			return nil
		},
	}
	cmd.Flags().Float64Var(&rate, "demand-charge-rate", 0, "demand charge in $/kW-month (0 keeps config)")
	return cmd
}

func forecastCmd(g *globals) *cobra.Command {
	var horizon int
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast hourly demand after the end of the series",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := g.loadInputs(cmd.Context())
			if err != nil {
				return err
			}
			f, err := forecast.ForecastDemand(in.samples, horizon)
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(f)
			}
			printForecast(f)
			return nil
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", forecast.DefaultHorizonHours, "forecast horizon in hours")
	return cmd
}

func healthCmd(g *globals) *cobra.Command {
	var cycles, age, temp, dod float64
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Predict battery state of health and end of life",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := forecast.PredictBatteryHealth(cycles, age, temp, dod)
			if g.jsonOut {
				return printJSON(h)
			}
			fmt.Printf("State of health:   %.2f%%\n", h.SOHPct)
			fmt.Printf("Degradation rate:  %.3f%%/year\n", h.DegradationRatePctPerYear)
			fmt.Printf("End of life:       %.1f years\n", h.EOLYears)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&cycles, "cycles", 365, "equivalent full cycles to date")
	f.Float64Var(&age, "age", 1, "battery age in years")
	f.Float64Var(&temp, "temp", battery.DefaultTemperatureC, "average cell temperature in C")
	f.Float64Var(&dod, "dod", 0.8, "average depth of discharge (fraction)")
	return cmd
}

func degradeCmd(g *globals) *cobra.Command {
	in := battery.ProjectionInput{}
	cmd := &cobra.Command{
		Use:   "degrade",
		Short: "Project capacity fade year by year for a chemistry",
		RunE: func(cmd *cobra.Command, args []string) error {
			traj, err := battery.ProjectDegradation(in)
			if err != nil {
				keys := make([]string, 0)
				for _, c := range battery.Chemistries() {
					keys = append(keys, c.Key)
				}
				return fmt.Errorf("%w (available: %s)", err, strings.Join(keys, ", "))
			}
			if g.jsonOut {
				return printJSON(traj)
			}
			printTrajectory(traj)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Chemistry, "chemistry", "lfp", "cell chemistry")
	f.IntVar(&in.Years, "years", 10, "projection horizon in years")
	f.Float64Var(&in.CyclesPerYear, "cycles-per-year", 365, "equivalent full cycles per year")
	f.Float64Var(&in.AvgDoD, "dod", 0.8, "average depth of discharge (fraction)")
	f.Float64Var(&in.AvgTempC, "temp", battery.DefaultTemperatureC, "average cell temperature in C")
	return cmd
}

func strategiesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List control strategies and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := strategy.Catalog()
			sort.Slice(cat, func(i, j int) bool { return cat[i].Name < cat[j].Name })
			if g.jsonOut {
				return printJSON(cat)
			}
			printCatalog(cat)
			return nil
		},
	}
}
