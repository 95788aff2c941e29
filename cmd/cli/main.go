package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// globals are the flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	jsonOut    bool

	// input overrides
	dataPath  string
	lmpPath   string
	location  string
	strategy  string
	sector    string
	peakKW    float64
	solarKW   float64
	hours     int
	seed      int64
	gsDataset string
	gsStart   string
	gsEnd     string
}

func main() {
	var g globals

	root := &cobra.Command{
		Use:   "bess",
		Short: "Battery energy storage valuation",
		Long: `bess values a behind-the-meter battery against a load/price series.
It clusters load shapes, analyzes peaks, forecasts demand, simulates hourly
dispatch under a control strategy and projects savings, ROI and degradation.

Input is a CSV/JSON sample file (--data) or a synthetic sector profile.
Hourly prices can be replaced by wholesale LMPs from a saved Grid Status
response (--lmp-file) or fetched live with GRIDSTATUS_API_KEY set.

Examples:
  bess simulate --config examples/config.yaml --out results/dispatch.csv
  bess optimize --sector retail --peak-kw 800 --hours 720 --strategy hybrid
  bess compare --data load.csv --strategies peak_shaving,tou_arbitrage,hybrid
  bess degrade --chemistry nmc --cycles-per-year 300 --years 15`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(g.logLevel)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "path to YAML config (defaults apply when empty)")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVar(&g.jsonOut, "json", false, "print results as JSON instead of tables")

	pf.StringVarP(&g.dataPath, "data", "d", "", "load sample file (.csv or .json); overrides simulation.data_file")
	pf.StringVar(&g.lmpPath, "lmp-file", "", "saved Grid Status LMP response used for real-time prices")
	pf.StringVar(&g.location, "location", "", "pricing node to use from the LMP data")
	pf.StringVarP(&g.strategy, "strategy", "s", "", "control strategy; overrides strategy.name")
	pf.StringVar(&g.sector, "sector", "", "synthetic profile sector: office, retail, industrial, residential")
	pf.Float64Var(&g.peakKW, "peak-kw", 0, "synthetic profile peak demand in kW")
	pf.Float64Var(&g.solarKW, "solar-kw", -1, "synthetic profile solar capacity in kW (-1 keeps config)")
	pf.IntVar(&g.hours, "hours", 0, "synthetic profile length in hours")
	pf.Int64Var(&g.seed, "seed", 0, "synthetic profile seed (0 keeps config)")
	pf.StringVar(&g.gsDataset, "gridstatus-dataset", "", "fetch LMPs live from this Grid Status dataset (needs GRIDSTATUS_API_KEY and --location)")
	pf.StringVar(&g.gsStart, "gridstatus-start", "", "live fetch start date YYYY-MM-DD")
	pf.StringVar(&g.gsEnd, "gridstatus-end", "", "live fetch end date YYYY-MM-DD")

	root.AddCommand(
		simulateCmd(&g),
		optimizeCmd(&g),
		compareCmd(&g),
		monteCarloCmd(&g),
		clusterCmd(&g),
		peaksCmd(&g),
		forecastCmd(&g),
		healthCmd(&g),
		degradeCmd(&g),
		strategiesCmd(&g),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		stop()
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
