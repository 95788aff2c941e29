package dispatch

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

var ledgerHeader = []string{
	"hour",
	"timestamp",
	"load_kw",
	"solar_kw",
	"wind_kw",
	"net_load_kw",
	"action",
	"requested_power_kw",
	"battery_power_kw",
	"efficiency",
	"soc",
	"soc_kwh",
	"grid_import_kw",
	"grid_export_kw",
	"price_per_kwh",
	"incremental_savings",
}

func WriteLedgerCSV(path string, res *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteLedger(f, res); err != nil {
		return err
	}
	return f.Close()
}

// WriteLedger writes the step records of res as CSV with a header row.
func WriteLedger(out io.Writer, res *Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(ledgerHeader); err != nil {
		return err
	}
	if res != nil {
		for _, r := range res.Steps {
			row := []string{
				strconv.Itoa(r.Hour),
				fmtTime(r.Timestamp),
				fmtFloat(r.LoadKW),
				fmtFloat(r.SolarKW),
				fmtFloat(r.WindKW),
				fmtFloat(r.NetLoadKW),
				string(r.Action),
				fmtFloat(r.RequestedPowerKW),
				fmtFloat(r.BatteryPowerKW),
				fmtFloat(r.Efficiency),
				fmtFloat(r.SOC),
				fmtFloat(r.SOCKWh),
				fmtFloat(r.GridImportKW),
				fmtFloat(r.GridExportKW),
				fmtFloat(r.PricePerKWh),
				fmtFloat(r.IncrementalSavings),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
