package intent

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
)

// TypeCorrector nudges characteristic values toward their declared GST
// value type so the validator's type check succeeds: "Supported" becomes
// "true" for a BINARY characteristic, "99.7" is rounded for an INTEGER
// one, and SET values get a canonical comma-separated rendering.
type TypeCorrector struct {
	registry *gst.Registry
}

// NewTypeCorrector builds a type corrector over the given registry.
func NewTypeCorrector(registry *gst.Registry) *TypeCorrector {
	return &TypeCorrector{registry: registry}
}

var binaryTrue = map[string]bool{
	"supported": true, "yes": true, "true": true,
	"enabled": true, "available": true, "1": true,
}

var binaryFalse = map[string]bool{
	"not supported": true, "no": true, "false": true,
	"disabled": true, "unavailable": true, "0": true,
}

// FixIntent corrects value types across the intent and returns the
// corrected copy plus human-readable notes for every change made.
// Characteristics whose name is not registered are left untouched.
func (tc *TypeCorrector) FixIntent(in *Intent) (*Intent, []string) {
	out := in.Clone()
	var notes []string
	for i := range out.ServiceSpecCharacteristic {
		ch := &out.ServiceSpecCharacteristic[i]
		spec, ok := tc.registry.Lookup(ch.Name)
		if !ok {
			continue
		}
		if note := tc.fixValue(ch, spec); note != "" {
			notes = append(notes, note)
		}
	}
	return out, notes
}

func (tc *TypeCorrector) fixValue(ch *Characteristic, spec *gst.CharacteristicSpec) string {
	original := ch.Value.Value
	trimmed := strings.TrimSpace(original)

	switch spec.ValueType {
	case gst.ValueTypeBinary:
		fixed, ok := fixBinary(trimmed)
		if ok && fixed != original {
			ch.Value.Value = fixed
			return fmt.Sprintf("%s: converted %q to BINARY %s", ch.Name, original, fixed)
		}
	case gst.ValueTypeInteger:
		if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			if trimmed != original {
				ch.Value.Value = trimmed
			}
			return ""
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			fixed := strconv.FormatInt(int64(math.Round(f)), 10)
			ch.Value.Value = fixed
			return fmt.Sprintf("%s: converted %q to INTEGER %s", ch.Name, original, fixed)
		}
	case gst.ValueTypeFloat:
		if trimmed != original {
			if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
				ch.Value.Value = trimmed
				return fmt.Sprintf("%s: trimmed FLOAT value %q", ch.Name, original)
			}
		}
	case gst.ValueTypeSet:
		fixed := canonicalSet(trimmed)
		if fixed != original {
			ch.Value.Value = fixed
			return fmt.Sprintf("%s: converted %q to SET %q", ch.Name, original, fixed)
		}
	}
	return ""
}

func fixBinary(v string) (string, bool) {
	lower := strings.ToLower(v)
	if binaryTrue[lower] {
		return "true", true
	}
	if binaryFalse[lower] {
		return "false", true
	}
	if f, err := strconv.ParseFloat(lower, 64); err == nil {
		return strconv.FormatBool(f > 0), true
	}
	return "", false
}

// canonicalSet splits a comma-separated value and rejoins it with a
// single ", " separator.
func canonicalSet(v string) string {
	if !strings.Contains(v, ",") {
		return v
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
