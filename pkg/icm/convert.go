package icm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/thc1006/tmf921-intent-bridge/pkg/intent"
)

// Conversion failure categories. Conversion is all-or-nothing per
// intent: the caller keeps the simple artifact and moves on.
var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidData  = errors.New("invalid data")
)

// DefaultResourceType is the target resource type assumed for GST-based
// intents.
const DefaultResourceType = "NetworkSlice"

// Converter lifts flat intents into the ICM form. Identifier counters
// are owned by the instance and advanced atomically, so one converter
// may serve a concurrent batch while conversions stay independently
// reproducible per instance.
type Converter struct {
	resourceType string

	intentSeq      atomic.Int64
	targetSeq      atomic.Int64
	expectationSeq atomic.Int64
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithResourceType overrides the target resource type.
func WithResourceType(rt string) ConverterOption {
	return func(c *Converter) { c.resourceType = rt }
}

// NewConverter builds a converter with fresh identifier counters.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{resourceType: DefaultResourceType}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToICM converts a flat intent into the ICM JSON-LD form. All
// characteristics map to PropertyExpectations referencing one shared
// NetworkSlice target. The conversion is rejected outright when a
// required field is missing or a characteristic entry is malformed; no
// partial ICM intent is ever returned.
func (c *Converter) ToICM(in *intent.Intent) (*Intent, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: intent", ErrMissingField)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description", ErrMissingField)
	}

	intentID := fmt.Sprintf("#intent-%d", c.intentSeq.Add(1))
	targetID := fmt.Sprintf("#target-%d", c.targetSeq.Add(1))

	expectations := make([]Expectation, 0, len(in.ServiceSpecCharacteristic))
	for i, ch := range in.ServiceSpecCharacteristic {
		if strings.TrimSpace(ch.Name) == "" {
			return nil, fmt.Errorf("%w: characteristic %d has no name", ErrInvalidData, i)
		}
		if strings.TrimSpace(ch.Value.Value) == "" {
			return nil, fmt.Errorf("%w: characteristic %q has no value", ErrInvalidData, ch.Name)
		}

		op := InferOperator(ch.Name)
		clause := &Clause{
			Property: NormalizeProperty(ch.Name),
			Value: ClauseValue{
				Value: parseTypedValue(ch.Value.Value),
				Unit:  ch.Value.UnitOfMeasure,
			},
		}
		expectations = append(expectations, PropertyExpectation{
			Type:                 TypePropertyExpectation,
			ID:                   fmt.Sprintf("#expectation-%d", c.expectationSeq.Add(1)),
			Target:               TargetRef{ID: targetID},
			ExpectationCondition: leafCondition(op, clause),
		})
	}

	return &Intent{
		Ctx:            Context,
		Type:           TypeIntent,
		ID:             intentID,
		Name:           in.Name,
		Description:    in.Description,
		HasExpectation: expectations,
		Target: []Target{{
			ID:           targetID,
			Type:         TypeTarget,
			ResourceType: c.resourceType,
		}},
	}, nil
}

// InferOperator derives the relational operator from keyword patterns in
// the characteristic name: tolerance/maximum/delay/latency phrasings are
// upper bounds, guaranteed/minimum/bandwidth phrasings are lower bounds,
// anything else is an equality.
func InferOperator(name string) Operator {
	lower := strings.ToLower(name)
	for _, kw := range []string{"maximum", "max", "tolerance", "delay", "latency"} {
		if strings.Contains(lower, kw) {
			return OpSmaller
		}
	}
	for _, kw := range []string{"minimum", "min", "guaranteed", "bandwidth"} {
		if strings.Contains(lower, kw) {
			return OpGreater
		}
	}
	return OpEqual
}

// qualifier suffixes stripped from characteristic names, in priority
// order; at most one is removed.
var propertySuffixes = []string{" tolerance", " guaranteed", " minimum", " maximum"}

// NormalizeProperty strips a trailing qualifier suffix from the
// characteristic name to obtain the bare property name ("Delay
// tolerance" becomes "Delay"). The mapping is lossy: distinct
// characteristic names can normalize to the same property.
func NormalizeProperty(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range propertySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return strings.TrimSpace(name[:len(name)-len(suffix)])
		}
	}
	return strings.TrimSpace(name)
}

// parseTypedValue types numeric value strings as json.Number so the
// exact source literal survives both the in-memory and serialized
// round trips ("20.0" stays "20.0"); anything else stays a string.
func parseTypedValue(s string) any {
	trimmed := strings.TrimSpace(s)
	var n json.Number
	if err := json.Unmarshal([]byte(trimmed), &n); err == nil {
		return n
	}
	return s
}
