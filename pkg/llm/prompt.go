package llm

import (
	"fmt"
	"strings"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
)

// SystemPrompt is the fixed system message for intent translation.
const SystemPrompt = "You are a network configuration expert. Translate natural language network requirements into TMF921-compliant Intent JSON. Output only the JSON object, no explanation."

// keyword groups used to pick the characteristics worth listing in the
// prompt when no retrieval grounding is supplied.
var priorityKeywords = []string{
	"bandwidth", "throughput", "latency", "delay",
	"availability", "reliability", "coverage", "area",
}

// PromptBuilder assembles the structured five-section translation
// prompt from the GST catalog plus optional retrieval grounding.
type PromptBuilder struct {
	registry *gst.Registry
	keyChars []*gst.CharacteristicSpec
}

// NewPromptBuilder builds a prompt builder over the given registry.
func NewPromptBuilder(registry *gst.Registry) *PromptBuilder {
	pb := &PromptBuilder{registry: registry}
	for _, spec := range registry.AllSpecifications() {
		lower := strings.ToLower(spec.Name)
		for _, kw := range priorityKeywords {
			if strings.Contains(lower, kw) {
				pb.keyChars = append(pb.keyChars, spec)
				break
			}
		}
		if len(pb.keyChars) >= 20 {
			break
		}
	}
	return pb
}

// BuildZeroShot renders the five-section prompt for a scenario. When
// grounding specs are provided (typically from the RAG retriever) they
// replace the keyword-selected characteristic list.
func (pb *PromptBuilder) BuildZeroShot(scenario string, grounding []*gst.CharacteristicSpec) string {
	chars := grounding
	if len(chars) == 0 {
		chars = pb.keyChars
	}

	var b strings.Builder
	b.WriteString("# SECTION 1: Intent Specification\n\n")
	b.WriteString("Translate the following natural language network requirement into a TMF921-compliant Intent JSON structure.\n\n")
	fmt.Fprintf(&b, "**Input Scenario:**\n%q\n\n", scenario)

	b.WriteString("# SECTION 2: Network Context\n\n")
	b.WriteString("The target is a 5G/6G network slice configuration based on the TMF GST (Generic Slice Template) External specification v10.0.0.\n\n")

	b.WriteString("# SECTION 3: KPIs and Constraints\n\n")
	b.WriteString("Extract bandwidth/throughput, latency/delay, availability/reliability, and coverage requirements from the scenario.\n\n")

	b.WriteString("# SECTION 4: Valid Characteristics\n\n")
	b.WriteString("Use ONLY these exact GST characteristic names:\n")
	for _, spec := range chars {
		fmt.Fprintf(&b, "- %q (%s", spec.Name, spec.ValueType)
		if spec.UnitOfMeasure != "" {
			fmt.Fprintf(&b, ", %s", spec.UnitOfMeasure)
		}
		b.WriteString(")\n")
	}
	b.WriteString("\n")

	b.WriteString("# SECTION 5: Output Format\n\n")
	b.WriteString("Output a single JSON object:\n")
	b.WriteString("```json\n{\n  \"name\": \"<intent name>\",\n  \"description\": \"<one sentence>\",\n  \"serviceSpecCharacteristic\": [\n    {\"name\": \"<GST name>\", \"value\": {\"value\": \"<value>\", \"unitOfMeasure\": \"<unit>\"}}\n  ]\n}\n```\n")

	return b.String()
}
