package intent

import (
	"math"

	"github.com/agnivade/levenshtein"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
)

// DefaultSimilarityThreshold is the score a fuzzy match must strictly
// exceed before a candidate name is rewritten.
const DefaultSimilarityThreshold = 80

// Correction records a single name rewrite performed by the corrector.
type Correction struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Score     int    `json:"score"`
}

// NameCorrector resolves LLM-invented characteristic names to valid GST
// names. It never invents structure: a candidate with no exact match, no
// known alias and no fuzzy match above the threshold is left as-is for
// the validator to reject.
type NameCorrector struct {
	registry  *gst.Registry
	threshold int
	known     map[string]string
}

// knownAliases maps recurring LLM phrasings to GST names. The table was
// accumulated from observed translation errors; entries whose target is
// not registered are ignored at construction time.
var knownAliases = map[string]string{
	// Latency variations.
	"E2E latency":        "Delay tolerance",
	"End-to-end latency": "Delay tolerance",
	"Latency":            "Delay tolerance",
	"E2E Latency":        "Delay tolerance",
	"Network latency":    "Delay tolerance",

	// Bandwidth variations.
	"Bandwidth":  "Downlink throughput per network slice: Maximum downlink throughput",
	"Throughput": "Downlink throughput per network slice: Maximum downlink throughput",
	"Data rate":  "Downlink throughput per network slice: Maximum downlink throughput",

	// Availability variations. "Reliability" is also a registered GST
	// name, so the alias only fires against catalogs without it.
	"Uptime":               "Availability",
	"Reliability":          "Availability",
	"Service availability": "Availability",

	// User count variations.
	"Number of users":  "Number of UEs per network slice",
	"User count":       "Number of UEs per network slice",
	"Concurrent users": "Number of UEs per network slice",
}

// CorrectorOption configures a NameCorrector.
type CorrectorOption func(*NameCorrector)

// WithThreshold overrides the fuzzy-match threshold (0-100).
func WithThreshold(t int) CorrectorOption {
	return func(c *NameCorrector) { c.threshold = t }
}

// WithAliases replaces the built-in alias table.
func WithAliases(aliases map[string]string) CorrectorOption {
	return func(c *NameCorrector) { c.known = aliases }
}

// NewNameCorrector builds a corrector over the given registry.
func NewNameCorrector(registry *gst.Registry, opts ...CorrectorOption) *NameCorrector {
	c := &NameCorrector{
		registry:  registry,
		threshold: DefaultSimilarityThreshold,
		known:     knownAliases,
	}
	for _, opt := range opts {
		opt(c)
	}
	filtered := make(map[string]string, len(c.known))
	for alias, target := range c.known {
		if _, ok := registry.Lookup(target); ok {
			filtered[alias] = target
		}
	}
	c.known = filtered
	return c
}

// Correct resolves a single candidate name. It returns the resolved name
// and, when a rewrite happened, the correction record.
func (c *NameCorrector) Correct(name string) (string, *Correction) {
	if _, ok := c.registry.Lookup(name); ok {
		return name, nil
	}

	if target, ok := c.known[name]; ok {
		return target, &Correction{Original: name, Corrected: target, Score: 100}
	}

	best := ""
	bestScore := -1
	for _, valid := range c.registry.AllNames() {
		score := similarityRatio(name, valid)
		if score > bestScore {
			best = valid
			bestScore = score
		}
	}
	if bestScore > c.threshold {
		return best, &Correction{Original: name, Corrected: best, Score: bestScore}
	}
	return name, nil
}

// CorrectIntent applies Correct to every characteristic name and returns
// the corrected copy together with the ordered correction records. The
// input intent is not mutated.
func (c *NameCorrector) CorrectIntent(in *Intent) (*Intent, []Correction) {
	out := in.Clone()
	var corrections []Correction
	for i := range out.ServiceSpecCharacteristic {
		name := out.ServiceSpecCharacteristic[i].Name
		if name == "" {
			continue
		}
		corrected, rec := c.Correct(name)
		if rec != nil {
			out.ServiceSpecCharacteristic[i].Name = corrected
			corrections = append(corrections, *rec)
		}
	}
	return out, corrections
}

// similarityRatio is a normalized edit-distance similarity in [0,100]:
// 100 for identical strings, 0 for strings with nothing in common.
func similarityRatio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}
