package data

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"bess-valuation/internal/model"
)

// LoadLMPJSON reads a saved Grid Status location query response.
func LoadLMPJSON(path string) (*model.LMPResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp model.LMPResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &resp, nil
}

// GroupByLocation splits a response into location-keyed slices.
func GroupByLocation(resp *model.LMPResponse) map[string][]model.LMPInterval {
	out := map[string][]model.LMPInterval{}
	if resp == nil {
		return out
	}
	for _, it := range resp.Data {
		out[it.Location] = append(out[it.Location], it)
	}
	return out
}

// LoadSamplesJSON reads a JSON array of samples and sorts it by time.
func LoadSamplesJSON(path string) ([]model.LoadSample, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var samples []model.LoadSample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	SortSamples(samples)
	return samples, nil
}

// SortSamples orders samples chronologically in place.
func SortSamples(samples []model.LoadSample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}
