package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
)

func TestBuildZeroShot(t *testing.T) {
	pb := NewPromptBuilder(gst.Default())

	prompt := pb.BuildZeroShot("Gaming slice with 20ms latency", nil)

	assert.Contains(t, prompt, "SECTION 1")
	assert.Contains(t, prompt, "SECTION 5")
	assert.Contains(t, prompt, "Gaming slice with 20ms latency")
	assert.Contains(t, prompt, "Delay tolerance")
	assert.Contains(t, prompt, "serviceSpecCharacteristic")
}

func TestBuildZeroShotWithGrounding(t *testing.T) {
	reg := gst.Default()
	pb := NewPromptBuilder(reg)

	spec, ok := reg.Lookup("Mission critical support")
	require.True(t, ok)

	prompt := pb.BuildZeroShot("mission critical comms", []*gst.CharacteristicSpec{spec})

	assert.Contains(t, prompt, "Mission critical support")
	// Grounding replaces the default characteristic list.
	assert.Equal(t, 1, strings.Count(prompt, "- \""))
}
