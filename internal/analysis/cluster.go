// Package analysis summarizes historical load and price series: typical-day
// clustering, peak demand patterns and price distribution statistics.
package analysis

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"bess-valuation/internal/model"

	"gonum.org/v1/gonum/floats"
)

const (
	DefaultClusters = 5

	hoursPerDay      = 24
	minHoursPerDay   = 20
	maxIterations    = 50
	convergenceKW    = 0.01
	labelLowMaxKW    = 50
	labelMediumMaxKW = 200
	labelHighMaxKW   = 500
)

// DayProfile is one calendar day reduced to 24 hourly demand values.
type DayProfile struct {
	Date   time.Time `json:"date"`
	Demand []float64 `json:"demand_kw"`
}

// ClusterResult groups days into K typical load shapes.
type ClusterResult struct {
	Days        []DayProfile `json:"days"`
	Assignments []int        `json:"assignments"`
	Centroids   [][]float64  `json:"centroids"`
	Labels      []string     `json:"labels"`
	Sizes       []int        `json:"sizes"`
	Inertia     []float64    `json:"inertia"`
	Iterations  int          `json:"iterations"`
}

// Clone returns a deep copy that shares no slices with r.
func (r ClusterResult) Clone() ClusterResult {
	out := r
	if r.Days != nil {
		out.Days = make([]DayProfile, len(r.Days))
		for i, d := range r.Days {
			out.Days[i] = DayProfile{Date: d.Date, Demand: append([]float64(nil), d.Demand...)}
		}
	}
	if r.Centroids != nil {
		out.Centroids = make([][]float64, len(r.Centroids))
		for i, c := range r.Centroids {
			out.Centroids[i] = append([]float64(nil), c...)
		}
	}
	out.Assignments = append([]int(nil), r.Assignments...)
	out.Labels = append([]string(nil), r.Labels...)
	out.Sizes = append([]int(nil), r.Sizes...)
	out.Inertia = append([]float64(nil), r.Inertia...)
	return out
}

// K is the number of clusters actually used.
func (r ClusterResult) K() int { return len(r.Centroids) }

// ClusterLoadProfiles runs k-means over daily 24-hour demand vectors. Days
// with fewer than 20 distinct hours of data are skipped. Initial centroids are
// k distinct days drawn from rng, so results are reproducible for a seed.
// A nil rng uses a fixed seed.
func ClusterLoadProfiles(samples []model.LoadSample, k int, rng *rand.Rand) ClusterResult {
	days := DailyProfiles(samples)
	if len(days) == 0 {
		return ClusterResult{}
	}
	if k <= 0 {
		k = DefaultClusters
	}
	if k > len(days) {
		k = len(days)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(len(days))[:k] {
		centroids[i] = append([]float64(nil), days[idx].Demand...)
	}

	assign := make([]int, len(days))
	var inertia []float64
	iter := 0
	for iter < maxIterations {
		iter++
		sse := 0.0
		for i, d := range days {
			best, bestDist := 0, math.Inf(1)
			for c, cent := range centroids {
				if dist := floats.Distance(d.Demand, cent, 2); dist < bestDist {
					best, bestDist = c, dist
				}
			}
			assign[i] = best
			sse += bestDist * bestDist
		}
		inertia = append(inertia, sse)

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, hoursPerDay)
		}
		for i, d := range days {
			floats.Add(next[assign[i]], d.Demand)
			counts[assign[i]]++
		}
		moved := 0.0
		for c := range next {
			// Empty clusters collapse to the zero vector.
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), next[c])
			}
			moved = math.Max(moved, floats.Distance(next[c], centroids[c], 2))
		}
		centroids = next
		if moved < convergenceKW {
			break
		}
	}

	sizes := make([]int, k)
	for _, a := range assign {
		sizes[a]++
	}
	labels := make([]string, k)
	for c, cent := range centroids {
		labels[c] = LabelForPeak(floats.Max(cent))
	}

	return ClusterResult{
		Days:        days,
		Assignments: assign,
		Centroids:   centroids,
		Labels:      labels,
		Sizes:       sizes,
		Inertia:     inertia,
		Iterations:  iter,
	}
}

// LabelForPeak names a cluster by its centroid's peak demand.
func LabelForPeak(peakKW float64) string {
	switch {
	case peakKW < labelLowMaxKW:
		return "Low"
	case peakKW < labelMediumMaxKW:
		return "Medium"
	case peakKW < labelHighMaxKW:
		return "High"
	default:
		return "Peak"
	}
}

// DailyProfiles buckets samples by calendar day (in each sample's own
// location) and averages samples that share an hour.
func DailyProfiles(samples []model.LoadSample) []DayProfile {
	type bucket struct {
		date   time.Time
		sum    [hoursPerDay]float64
		counts [hoursPerDay]int
	}
	byDay := map[string]*bucket{}
	for _, s := range samples {
		ts := s.Timestamp
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
		key := day.Format("2006-01-02")
		b, ok := byDay[key]
		if !ok {
			b = &bucket{date: day}
			byDay[key] = b
		}
		b.sum[ts.Hour()] += s.DemandKW
		b.counts[ts.Hour()]++
	}

	out := make([]DayProfile, 0, len(byDay))
	for _, b := range byDay {
		seen := 0
		for _, c := range b.counts {
			if c > 0 {
				seen++
			}
		}
		if seen < minHoursPerDay {
			continue
		}
		demand := make([]float64, hoursPerDay)
		for h := range demand {
			if b.counts[h] > 0 {
				demand[h] = b.sum[h] / float64(b.counts[h])
			}
		}
		out = append(out, DayProfile{Date: b.date, Demand: demand})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
