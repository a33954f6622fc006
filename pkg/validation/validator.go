// Package validation runs the multi-stage verdict pipeline over
// candidate TMF921 intents: structural checks, GST characteristic-name
// and value-type checks, and advisory plausibility checks. All stages
// always run so a single pass yields the full diagnostic picture.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
	"github.com/thc1006/tmf921-intent-bridge/pkg/intent"
)

// Verdict is the structured result of validating one intent.
type Verdict struct {
	FormatValid          bool     `json:"format_valid"`
	CharacteristicsValid bool     `json:"characteristics_valid"`
	PlausibilityValid    bool     `json:"plausibility_valid"`
	Errors               []string `json:"errors"`
	Warnings             []string `json:"warnings"`
	OverallValid         bool     `json:"overall_valid"`
}

// Validator validates intents against a GST registry. It holds no
// mutable state and is safe for concurrent use.
type Validator struct {
	registry *gst.Registry
}

// NewValidator builds a validator over the given registry.
func NewValidator(registry *gst.Registry) *Validator {
	return &Validator{registry: registry}
}

// ValidateAll runs all three stages and assembles the verdict. It never
// fails: malformed input degrades to recorded errors. Plausibility
// warnings do not gate overall validity; schema correctness is the gate.
func (v *Validator) ValidateAll(in *intent.Intent) Verdict {
	formatValid, formatErrors := v.validateFormat(in)
	charsValid, charErrors := v.validateCharacteristics(in)
	warnings := v.validatePlausibility(in)

	errs := make([]string, 0, len(formatErrors)+len(charErrors))
	errs = append(errs, formatErrors...)
	errs = append(errs, charErrors...)

	return Verdict{
		FormatValid:          formatValid,
		CharacteristicsValid: charsValid,
		PlausibilityValid:    len(warnings) == 0,
		Errors:               errs,
		Warnings:             warnings,
		OverallValid:         formatValid && charsValid,
	}
}

// validateFormat is stage 1: required fields and per-characteristic
// shape. A malformed characteristic is a per-item error; the remaining
// items are still checked.
func (v *Validator) validateFormat(in *intent.Intent) (bool, []string) {
	var errs []string

	if in == nil {
		return false, []string{"intent is empty"}
	}
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, "missing required field: 'name'")
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, "missing required field: 'description'")
	}
	for i, ch := range in.ServiceSpecCharacteristic {
		if strings.TrimSpace(ch.Name) == "" {
			errs = append(errs, fmt.Sprintf("characteristic %d missing 'name' field", i))
		}
		if strings.TrimSpace(ch.Value.Value) == "" {
			errs = append(errs, fmt.Sprintf("characteristic %d missing 'value' field", i))
		}
	}
	return len(errs) == 0, errs
}

// validateCharacteristics is stage 2: every characteristic name must be
// registered, and its value must parse per the declared value type.
func (v *Validator) validateCharacteristics(in *intent.Intent) (bool, []string) {
	var errs []string
	if in == nil {
		return false, nil
	}
	for _, ch := range in.ServiceSpecCharacteristic {
		if ch.Name == "" {
			continue // already a stage 1 error
		}
		spec, ok := v.registry.Lookup(ch.Name)
		if !ok {
			errs = append(errs, fmt.Sprintf("characteristic %q not found in GST specification", ch.Name))
			continue
		}
		if err := checkValueType(ch.Value.Value, spec.ValueType); err != nil {
			errs = append(errs, fmt.Sprintf("characteristic %q: %v", ch.Name, err))
		}
	}
	return len(errs) == 0, errs
}

func checkValueType(value string, vt gst.ValueType) error {
	switch vt {
	case gst.ValueTypeInteger:
		if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
			return fmt.Errorf("value %q is not a valid INTEGER", value)
		}
	case gst.ValueTypeFloat:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return fmt.Errorf("value %q is not a valid FLOAT", value)
		}
	case gst.ValueTypeBinary:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "false":
		default:
			return fmt.Errorf("value %q is not a valid BINARY", value)
		}
	}
	// TEXT, ENUM and SET accept any string.
	return nil
}

// Plausibility ranges, keyed by recognizable name substrings. Values
// outside a range are suspicious (likely hallucinated) but never fatal.
const (
	minPlausibleLatencyMs = 0.1
	maxPlausibleLatencyMs = 10000
)

// validatePlausibility is stage 3: advisory sanity ranges. A
// characteristic matching no rule is silently skipped.
func (v *Validator) validatePlausibility(in *intent.Intent) []string {
	var warnings []string
	if in == nil {
		return nil
	}
	for _, ch := range in.ServiceSpecCharacteristic {
		lower := strings.ToLower(ch.Name)
		val, err := strconv.ParseFloat(strings.TrimSpace(ch.Value.Value), 64)
		if err != nil {
			continue
		}
		unit := strings.ToLower(ch.Value.UnitOfMeasure)

		switch {
		case strings.Contains(lower, "latency") || strings.Contains(lower, "delay"):
			if val < minPlausibleLatencyMs {
				warnings = append(warnings, fmt.Sprintf("unrealistically low latency: %g ms", val))
			} else if val > maxPlausibleLatencyMs {
				warnings = append(warnings, fmt.Sprintf("unusually high latency: %g ms", val))
			}
		case strings.Contains(lower, "availability") || strings.Contains(lower, "reliability"):
			if val < 0 || val > 100 {
				warnings = append(warnings, fmt.Sprintf("availability/reliability out of range: %g%%", val))
			}
		case strings.Contains(lower, "bandwidth") || strings.Contains(lower, "throughput"):
			if strings.Contains(unit, "gbps") && val > 1000 {
				warnings = append(warnings, fmt.Sprintf("unusually high bandwidth: %g %s", val, ch.Value.UnitOfMeasure))
			} else if strings.Contains(unit, "kbps") && val < 1 {
				warnings = append(warnings, fmt.Sprintf("unusually low bandwidth: %g %s", val, ch.Value.UnitOfMeasure))
			}
		}
	}
	return warnings
}
