// Package dataset loads the natural-language scenario corpus and
// produces deterministic train/validation/test splits.
package dataset

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
)

// DefaultSeed keeps splits reproducible across runs.
const DefaultSeed = 42

// Dataset is an ordered collection of scenario descriptions.
type Dataset struct {
	Scenarios []string
}

// Load reads a JSON array of scenario strings.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios file: %w", err)
	}
	var scenarios []string
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios file: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenarios file %s is empty", path)
	}
	return &Dataset{Scenarios: scenarios}, nil
}

// Split shuffles with the seed and cuts train/val/test by ratio. The
// ratios must sum to 1; the test split absorbs rounding remainders.
func (d *Dataset) Split(trainRatio, valRatio, testRatio float64, seed int64) (train, val, test []string, err error) {
	if sum := trainRatio + valRatio + testRatio; sum < 0.999 || sum > 1.001 {
		return nil, nil, nil, fmt.Errorf("split ratios must sum to 1, got %.3f", sum)
	}

	shuffled := make([]string, len(d.Scenarios))
	copy(shuffled, d.Scenarios)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := int(float64(n) * trainRatio)
	valEnd := trainEnd + int(float64(n)*valRatio)

	return shuffled[:trainEnd], shuffled[trainEnd:valEnd], shuffled[valEnd:], nil
}

// Samples draws up to n scenarios without replacement, deterministic in
// the seed. Used for quick validation runs.
func (d *Dataset) Samples(n int, seed int64) []string {
	if n > len(d.Scenarios) {
		n = len(d.Scenarios)
	}
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(d.Scenarios))[:n]
	out := make([]string, n)
	for i, idx := range picked {
		out[i] = d.Scenarios[idx]
	}
	return out
}

// Stats summarizes the corpus for logging.
type Stats struct {
	Total    int     `json:"total_scenarios"`
	AvgChars float64 `json:"avg_length_chars"`
	MinChars int     `json:"min_length"`
	MaxChars int     `json:"max_length"`
}

// Analyze computes corpus statistics.
func (d *Dataset) Analyze() Stats {
	stats := Stats{Total: len(d.Scenarios)}
	if stats.Total == 0 {
		return stats
	}
	stats.MinChars = len(d.Scenarios[0])
	total := 0
	for _, s := range d.Scenarios {
		total += len(s)
		if len(s) < stats.MinChars {
			stats.MinChars = len(s)
		}
		if len(s) > stats.MaxChars {
			stats.MaxChars = len(s)
		}
	}
	stats.AvgChars = float64(total) / float64(stats.Total)
	return stats
}
