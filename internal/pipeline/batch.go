package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/thc1006/tmf921-intent-bridge/pkg/icm"
	"github.com/thc1006/tmf921-intent-bridge/pkg/intent"
	"github.com/thc1006/tmf921-intent-bridge/pkg/metrics"
)

// Runner executes a batch of scenarios and persists the artifacts an
// experiment run produces: periodic checkpoints, the full result set,
// paired Simple/ICM intent files and the metrics summary.
type Runner struct {
	pipeline   *Pipeline
	dir        string
	interval   int
	experiment string
	model      string
	logger     *slog.Logger
}

// Summary is the metrics_summary.json document.
type Summary struct {
	Experiment     string                   `json:"experiment"`
	Model          string                   `json:"model"`
	NumScenarios   int                      `json:"num_scenarios"`
	NumSuccessful  int                      `json:"num_successful"`
	NumCorrections int                      `json:"num_corrections"`
	FEACI          metrics.FEACI            `json:"feaci"`
	ICMExport      metrics.ICMExportSummary `json:"icm_export"`
	Timestamp      time.Time                `json:"timestamp"`
}

// NewRunner builds a batch runner writing artifacts under dir.
func NewRunner(p *Pipeline, dir, experiment, model string, checkpointInterval int, logger *slog.Logger) *Runner {
	if checkpointInterval <= 0 {
		checkpointInterval = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		pipeline:   p,
		dir:        dir,
		interval:   checkpointInterval,
		experiment: experiment,
		model:      model,
		logger:     logger,
	}
}

// Run processes every scenario in order. Context cancellation stops the
// batch early; results gathered so far are still persisted and
// summarized.
func (r *Runner) Run(ctx context.Context, scenarios []string) (*Summary, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results dir: %w", err)
	}

	r.logger.Info("starting batch run",
		"experiment", r.experiment,
		"scenarios", len(scenarios),
	)

	var results []*Result
	for i, scenario := range scenarios {
		if ctx.Err() != nil {
			r.logger.Warn("batch interrupted", "completed", len(results))
			break
		}

		result := r.pipeline.ProcessScenario(ctx, scenario)
		results = append(results, result)

		r.logger.Info("scenario processed",
			"n", i+1,
			"id", result.ID,
			"valid", result.Validation != nil && result.Validation.OverallValid,
			"corrections", len(result.Corrections),
		)

		if (i+1)%r.interval == 0 {
			if err := r.saveCheckpoint(i+1, results); err != nil {
				return nil, err
			}
		}
	}

	if err := r.writeJSON("all_results.json", results); err != nil {
		return nil, err
	}
	if err := r.saveIntentPair(results); err != nil {
		return nil, err
	}

	summary := r.summarize(results)
	if err := r.writeJSON("metrics_summary.json", summary); err != nil {
		return nil, err
	}

	metrics.Fprint(os.Stdout, summary.FEACI, summary.ICMExport)
	r.logger.Info("batch run complete", "dir", r.dir, "results", len(results))
	return summary, nil
}

func (r *Runner) summarize(results []*Result) *Summary {
	samples := make([]metrics.Sample, 0, len(results))
	corrections := 0
	for _, res := range results {
		samples = append(samples, res.Sample())
		corrections += len(res.Corrections)
	}

	feaci := metrics.ComputeFEACI(samples)
	return &Summary{
		Experiment:     r.experiment,
		Model:          r.model,
		NumScenarios:   len(results),
		NumSuccessful:  feaci.NumResults,
		NumCorrections: corrections,
		FEACI:          feaci,
		ICMExport:      metrics.ComputeICMExport(samples, r.pipeline.opts.ExportICM),
		Timestamp:      time.Now(),
	}
}

// saveIntentPair writes the Simple-format intents and their ICM
// counterparts as paired artifacts. Intents whose conversion failed
// appear in the Simple file only.
func (r *Runner) saveIntentPair(results []*Result) error {
	simple := make([]*intent.Intent, 0, len(results))
	converted := make([]*icm.Intent, 0, len(results))
	for _, res := range results {
		if res.Intent != nil {
			simple = append(simple, res.Intent)
		}
		if res.ICM != nil {
			converted = append(converted, res.ICM)
		}
	}
	if err := r.writeJSON("intents_simple.json", simple); err != nil {
		return err
	}
	if !r.pipeline.opts.ExportICM {
		return nil
	}
	return r.writeJSON("intents_icm.json", converted)
}

func (r *Runner) saveCheckpoint(n int, results []*Result) error {
	name := fmt.Sprintf("checkpoint_%d.json", n)
	if err := r.writeJSON(name, results); err != nil {
		return err
	}
	r.logger.Info("checkpoint saved", "scenarios", n)
	return nil
}

func (r *Runner) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
