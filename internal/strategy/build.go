package strategy

import (
	"log/slog"
	"strings"

	"bess-valuation/internal/model"
)

// Names of the configurable policies.
const (
	NamePeakShaving          = "peak_shaving"
	NameArbitrage            = "arbitrage"
	NameFrequencyRegulation  = "frequency_regulation"
	NameRenewableIntegration = "renewable_integration"
	NameTOUArbitrage         = "tou_arbitrage"
	NameSolarSelfConsumption = "solar_self_consumption"
	NameHybrid               = "hybrid"
	NameSchedule             = "schedule"
	NameNone                 = "none"
)

// Build maps a configured name and parameter bag to a Policy. Unknown names
// and unusable parameters degrade to Noop with a warning; they never fail
// the run.
func Build(name string, params map[string]any, b model.BatteryConfig) Policy {
	name = strings.ToLower(strings.TrimSpace(name))
	band := Band{Min: mustNum(params, "soc_min", 0), Max: mustNum(params, "soc_max", 0)}

	switch name {
	case NamePeakShaving:
		return &PeakShaving{ThresholdKW: mustNum(params, "threshold_kw", DefaultPeakThresholdKW), Band: band}
	case NameArbitrage:
		return &Arbitrage{
			BuyBelow:  mustNum(params, "buy_threshold", DefaultBuyBelow),
			SellAbove: mustNum(params, "sell_threshold", DefaultSellAbove),
			Band:      band,
		}
	case NameFrequencyRegulation:
		return &FrequencyRegulation{
			TargetSOC: mustNum(params, "target_soc", DefaultRegulationTarget),
			Deadband:  mustNum(params, "deadband", DefaultRegulationDeadband),
		}
	case NameRenewableIntegration:
		return &RenewableIntegration{Band: band}
	case NameTOUArbitrage:
		return &TOUArbitrage{
			ChargeRatio:    mustNum(params, "charge_ratio", DefaultTOUChargeRatio),
			DischargeRatio: mustNum(params, "discharge_ratio", DefaultTOUDischargeRatio),
			Band:           band,
		}
	case NameSolarSelfConsumption:
		return &SolarSelfConsumption{Band: band}
	case NameHybrid:
		members := mustStrs(params, "policies")
		if len(members) == 0 {
			return NewHybrid(mustNum(params, "threshold_kw", DefaultPeakThresholdKW))
		}
		h := &Hybrid{}
		for _, m := range members {
			if m == NameHybrid {
				slog.Warn("nested hybrid policy ignored", "component", "strategy")
				continue
			}
			h.Policies = append(h.Policies, Build(m, params, b))
		}
		return h
	case NameSchedule:
		dischargeStart := mustStr(params, "discharge_start", "17:00")
		s, err := NewSchedule(
			mustStr(params, "charge_start", "10:00"),
			mustStr(params, "charge_end", dischargeStart),
			dischargeStart,
			mustStr(params, "discharge_end", "21:00"),
			mustNum(params, "charge_power_kw", b.PowerKW),
			mustNum(params, "discharge_power_kw", b.PowerKW),
		)
		if err != nil {
			slog.Warn("invalid schedule, battery stays idle", "component", "strategy", "error", err)
			return Noop{}
		}
		s.Band = band
		return s
	case NameNone, "":
		return Noop{}
	default:
		slog.Warn("unknown strategy, battery stays idle", "component", "strategy", "strategy", name)
		return Noop{}
	}
}

func mustNum(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key]; ok && v != nil {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		case int64:
			return float64(x)
		}
	}
	return def
}

func mustStr(m map[string]any, key string, def string) string {
	if v, ok := m[key]; ok && v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}

// mustStrs accepts a list or a comma-separated string.
func mustStrs(m map[string]any, key string) []string {
	var raw []string
	switch x := m[key].(type) {
	case string:
		raw = strings.Split(x, ",")
	case []string:
		raw = x
	case []any:
		for _, v := range x {
			if s, ok := v.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
