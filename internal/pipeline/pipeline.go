// Package pipeline wires translation, post-correction, validation and
// ICM export into the end-to-end flow shared by the HTTP service and
// the batch runner.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
	"github.com/thc1006/tmf921-intent-bridge/pkg/icm"
	"github.com/thc1006/tmf921-intent-bridge/pkg/intent"
	"github.com/thc1006/tmf921-intent-bridge/pkg/llm"
	"github.com/thc1006/tmf921-intent-bridge/pkg/metrics"
	"github.com/thc1006/tmf921-intent-bridge/pkg/rag"
	"github.com/thc1006/tmf921-intent-bridge/pkg/validation"
)

// Options tune the pipeline.
type Options struct {
	Temperature float64
	MaxTokens   int
	TopK        int
	ExportICM   bool
}

// Pipeline runs one scenario or candidate intent through translation,
// correction, validation and optional ICM conversion. It is safe for
// concurrent use.
type Pipeline struct {
	registry  *gst.Registry
	client    llm.Client
	prompts   *llm.PromptBuilder
	retriever rag.Retriever
	schema    *validation.SchemaValidator
	corrector *intent.NameCorrector
	typer     *intent.TypeCorrector
	validator *validation.Validator
	converter *icm.Converter
	recorder  *metrics.Recorder
	logger    *slog.Logger
	opts      Options
}

// Result is the full record of one processed input.
type Result struct {
	ID          string              `json:"id"`
	Scenario    string              `json:"scenario,omitempty"`
	Intent      *intent.Intent      `json:"generated_intent,omitempty"`
	Corrections []intent.Correction `json:"name_corrections,omitempty"`
	TypeFixes   []string            `json:"type_corrections,omitempty"`
	Validation  *validation.Verdict `json:"validation,omitempty"`
	ICM         *icm.Intent         `json:"icm_intent,omitempty"`
	ICMError    string              `json:"icm_error,omitempty"`
	Tokens      int                 `json:"tokens"`
	Elapsed     time.Duration       `json:"time_ns"`
	Error       string              `json:"error,omitempty"`
}

// Sample converts the result into the metrics aggregation record.
func (r *Result) Sample() metrics.Sample {
	s := metrics.Sample{
		Validated:   r.Validation != nil,
		Tokens:      r.Tokens,
		Inference:   r.Elapsed,
		ICMExported: r.ICM != nil,
	}
	if r.Validation != nil {
		s.FormatValid = r.Validation.FormatValid
		s.OverallValid = r.Validation.OverallValid
	}
	return s
}

// New assembles a pipeline. The retriever may be nil, in which case
// prompts fall back to the builder's default grounding.
func New(
	registry *gst.Registry,
	client llm.Client,
	retriever rag.Retriever,
	recorder *metrics.Recorder,
	logger *slog.Logger,
	opts Options,
) (*Pipeline, error) {
	schema, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema validator: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Pipeline{
		registry:  registry,
		client:    client,
		prompts:   llm.NewPromptBuilder(registry),
		retriever: retriever,
		schema:    schema,
		corrector: intent.NewNameCorrector(registry),
		typer:     intent.NewTypeCorrector(registry),
		validator: validation.NewValidator(registry),
		converter: icm.NewConverter(),
		recorder:  recorder,
		logger:    logger,
		opts:      opts,
	}, nil
}

// ProcessScenario translates a natural-language scenario and runs the
// full post-processing chain. Generation or extraction failures return
// a Result with the Error field set rather than an error; transport
// errors before any work happened are returned directly.
func (p *Pipeline) ProcessScenario(ctx context.Context, scenario string) *Result {
	start := time.Now()
	result := &Result{
		ID:       uuid.NewString(),
		Scenario: scenario,
	}

	grounding := p.ground(ctx, scenario)

	resp, err := p.client.Generate(ctx, llm.Request{
		Prompt:       p.prompts.BuildZeroShot(scenario, grounding),
		SystemPrompt: llm.SystemPrompt,
		Temperature:  p.opts.Temperature,
		MaxTokens:    p.opts.MaxTokens,
	})
	if err != nil {
		result.Error = fmt.Sprintf("generation failed: %v", err)
		result.Elapsed = time.Since(start)
		p.observe(result, "scenario")
		return result
	}
	result.Tokens = resp.Tokens()

	raw, err := intent.ExtractJSON(resp.Text)
	if err != nil {
		result.Error = fmt.Sprintf("no JSON object in model output: %v", err)
		result.Elapsed = time.Since(start)
		p.observe(result, "scenario")
		return result
	}

	p.postProcess(result, raw)
	result.Elapsed = time.Since(start)
	p.observe(result, "scenario")
	return result
}

// ProcessCandidate runs an already-drafted Simple-format intent through
// correction, validation and optional conversion, skipping the model.
func (p *Pipeline) ProcessCandidate(ctx context.Context, raw []byte) *Result {
	start := time.Now()
	result := &Result{ID: uuid.NewString()}

	p.postProcess(result, raw)
	result.Elapsed = time.Since(start)
	p.observe(result, "candidate")
	return result
}

// postProcess parses raw Simple JSON and fills the correction,
// validation and ICM fields of the result.
func (p *Pipeline) postProcess(result *Result, raw []byte) {
	parsed, err := p.schema.ValidateBytes(raw)
	if err != nil {
		// Structural rejects still get a verdict so batch accounting
		// counts them as format failures, not lost samples.
		var fallback intent.Intent
		if jerr := json.Unmarshal(raw, &fallback); jerr != nil {
			result.Error = fmt.Sprintf("intent is not valid JSON: %v", jerr)
			return
		}
		parsed = &fallback
		result.Validation = &validation.Verdict{
			Errors: []string{err.Error()},
		}
	}

	corrected, corrections := p.corrector.CorrectIntent(parsed)
	result.Corrections = corrections

	fixed, fixes := p.typer.FixIntent(corrected)
	result.TypeFixes = fixes
	result.Intent = fixed

	verdict := p.validator.ValidateAll(fixed)
	if result.Validation != nil {
		// Merge the schema rejection into the staged verdict.
		verdict.FormatValid = false
		verdict.OverallValid = false
		verdict.Errors = append(result.Validation.Errors, verdict.Errors...)
	}
	result.Validation = &verdict

	if p.opts.ExportICM {
		converted, err := p.converter.ToICM(fixed)
		if err != nil {
			result.ICMError = err.Error()
			p.logger.Warn("icm conversion failed",
				"id", result.ID,
				"error", err,
			)
		} else {
			result.ICM = converted
		}
	}
}

// ground retrieves prompt grounding; retrieval failures degrade to the
// default characteristic listing.
func (p *Pipeline) ground(ctx context.Context, scenario string) []*gst.CharacteristicSpec {
	if p.retriever == nil {
		return nil
	}
	candidates, err := p.retriever.Retrieve(ctx, scenario, p.opts.TopK)
	if err != nil {
		p.logger.Warn("retrieval failed, using default grounding", "error", err)
		return nil
	}
	return rag.Specs(p.registry, candidates)
}

func (p *Pipeline) observe(result *Result, source string) {
	if p.recorder == nil {
		return
	}

	status := "ok"
	if result.Error != "" {
		status = "error"
	}
	p.recorder.ObserveRequest(source, status, result.Elapsed)
	p.recorder.ObserveTokens(result.Tokens)
	p.recorder.ObserveCorrections(len(result.Corrections))

	if result.Validation != nil {
		switch {
		case !result.Validation.OverallValid:
			p.recorder.ObserveValidation("invalid")
		case !result.Validation.PlausibilityValid:
			p.recorder.ObserveValidation("implausible")
		default:
			p.recorder.ObserveValidation("valid")
		}
	}
	if p.opts.ExportICM && result.Validation != nil {
		p.recorder.ObserveConversion(result.ICM != nil)
	}
}
