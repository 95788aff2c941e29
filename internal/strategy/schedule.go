package strategy

import (
	"fmt"
	"math"
	"strings"
)

// Schedule charges and discharges in fixed daily windows, read in each
// sample's own time zone. Windows are [start, end) and may wrap midnight;
// start == end is an empty window.
type Schedule struct {
	chargeStart, chargeEnd       int
	dischargeStart, dischargeEnd int

	ChargeKW    float64
	DischargeKW float64
	Band        Band
}

// NewSchedule parses "HH:MM" window bounds. A blank chargeEnd defaults to
// dischargeStart and a blank dischargeEnd leaves the discharge window empty.
func NewSchedule(chargeStart, chargeEnd, dischargeStart, dischargeEnd string, chargeKW, dischargeKW float64) (*Schedule, error) {
	cs, err := parseHHMM(chargeStart)
	if err != nil {
		return nil, fmt.Errorf("charge_start: %w", err)
	}
	ds, err := parseHHMM(dischargeStart)
	if err != nil {
		return nil, fmt.Errorf("discharge_start: %w", err)
	}
	ce, de := ds, ds
	if strings.TrimSpace(chargeEnd) != "" {
		if ce, err = parseHHMM(chargeEnd); err != nil {
			return nil, fmt.Errorf("charge_end: %w", err)
		}
	}
	if strings.TrimSpace(dischargeEnd) != "" {
		if de, err = parseHHMM(dischargeEnd); err != nil {
			return nil, fmt.Errorf("discharge_end: %w", err)
		}
	}
	return &Schedule{
		chargeStart:    cs,
		chargeEnd:      ce,
		dischargeStart: ds,
		dischargeEnd:   de,
		ChargeKW:       math.Abs(chargeKW),
		DischargeKW:    math.Abs(dischargeKW),
	}, nil
}

func (s *Schedule) Name() string { return "schedule" }

func (s *Schedule) Decide(ctx Context) Decision {
	ts := ctx.Sample.Timestamp
	mins := ts.Hour()*60 + ts.Minute()
	if headroom := s.Band.headroom(ctx); inWindow(mins, s.chargeStart, s.chargeEnd) && headroom > 0 {
		return single(min3(s.ChargeKW, ctx.Battery.PowerKW, headroom), CategoryTOUArbitrage)
	}
	if reserve := s.Band.reserve(ctx); inWindow(mins, s.dischargeStart, s.dischargeEnd) && reserve > 0 {
		return single(-min3(s.DischargeKW, ctx.Battery.PowerKW, reserve), CategoryTOUArbitrage)
	}
	return Idle
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow reports whether tMins falls in [start, end) on a 24h clock.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	return tMins >= start || tMins < end
}
