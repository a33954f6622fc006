// Package metrics aggregates experiment results into FEACI metrics
// (Format, Explainability, Accuracy, Cost, Inference time) and exposes
// live Prometheus instrumentation for the ingest service.
package metrics

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Sample is the per-scenario record the aggregator consumes. Validated
// reports whether the pipeline produced an intent that reached the
// validator at all; samples that never got that far are excluded from
// the averages, matching how failed generations are accounted.
type Sample struct {
	Validated    bool
	FormatValid  bool
	OverallValid bool
	Tokens       int
	Inference    time.Duration
	ICMExported  bool
}

// FEACI is the aggregate metrics block written into the batch summary.
type FEACI struct {
	FormatCorrectness  float64 `json:"format_correctness"`
	Accuracy           float64 `json:"accuracy"`
	CostAvgTokens      float64 `json:"cost_avg_tokens"`
	CostTotalTokens    int     `json:"cost_total_tokens"`
	InferenceAvgSecs   float64 `json:"inference_time_avg_seconds"`
	InferenceTotalSecs float64 `json:"inference_time_total_seconds"`
	NumResults         int     `json:"num_results"`
}

// ICMExportSummary accounts for the batch-level ICM conversion pass.
type ICMExportSummary struct {
	Enabled               bool    `json:"enabled"`
	SuccessfulConversions int     `json:"successful_conversions"`
	ConversionRate        float64 `json:"conversion_rate"`
}

// ComputeFEACI aggregates samples that reached validation. Percentages
// are on a 0-100 scale.
func ComputeFEACI(samples []Sample) FEACI {
	var valid []Sample
	for _, s := range samples {
		if s.Validated {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return FEACI{}
	}

	var formatValid, overallValid, totalTokens int
	var totalTime time.Duration
	for _, s := range valid {
		if s.FormatValid {
			formatValid++
		}
		if s.OverallValid {
			overallValid++
		}
		totalTokens += s.Tokens
		totalTime += s.Inference
	}

	n := float64(len(valid))
	return FEACI{
		FormatCorrectness:  float64(formatValid) / n * 100,
		Accuracy:           float64(overallValid) / n * 100,
		CostAvgTokens:      float64(totalTokens) / n,
		CostTotalTokens:    totalTokens,
		InferenceAvgSecs:   totalTime.Seconds() / n,
		InferenceTotalSecs: totalTime.Seconds(),
		NumResults:         len(valid),
	}
}

// ComputeICMExport summarizes the conversion pass. When the export is
// disabled the counters stay zero.
func ComputeICMExport(samples []Sample, enabled bool) ICMExportSummary {
	summary := ICMExportSummary{Enabled: enabled}
	if !enabled {
		return summary
	}
	var attempted int
	for _, s := range samples {
		if !s.Validated {
			continue
		}
		attempted++
		if s.ICMExported {
			summary.SuccessfulConversions++
		}
	}
	if attempted > 0 {
		summary.ConversionRate = float64(summary.SuccessfulConversions) / float64(attempted)
	}
	return summary
}

// Fprint writes a human-readable report of the aggregate metrics.
func Fprint(w io.Writer, f FEACI, icm ICMExportSummary) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\nFEACI METRICS\n%s\n\n", rule, rule)
	fmt.Fprintf(w, "Format Correctness: %.1f%%\n", f.FormatCorrectness)
	fmt.Fprintf(w, "Overall Accuracy:   %.1f%%\n", f.Accuracy)
	fmt.Fprintf(w, "Avg Tokens:         %.0f\n", f.CostAvgTokens)
	fmt.Fprintf(w, "Total Tokens:       %d\n", f.CostTotalTokens)
	fmt.Fprintf(w, "Avg Inference Time: %.1fs\n", f.InferenceAvgSecs)
	fmt.Fprintf(w, "Total Time:         %.1f min\n", f.InferenceTotalSecs/60)
	fmt.Fprintf(w, "Results Processed:  %d\n", f.NumResults)
	if icm.Enabled {
		fmt.Fprintf(w, "ICM Conversions:    %d (%.1f%%)\n",
			icm.SuccessfulConversions, icm.ConversionRate*100)
	}
	fmt.Fprintf(w, "\n%s\n\n", rule)
}
