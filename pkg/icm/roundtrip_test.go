package icm

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thc1006/tmf921-intent-bridge/pkg/intent"
)

// valueUnitPairs extracts the multiset of (value, unit) pairs, the part
// of the round trip that is guaranteed stable. Characteristic names are
// deliberately not compared: the forward conversion strips qualifier
// suffixes and the reverse cannot recover them exactly.
func valueUnitPairs(in *intent.Intent) []string {
	pairs := make([]string, 0, len(in.ServiceSpecCharacteristic))
	for _, ch := range in.ServiceSpecCharacteristic {
		pairs = append(pairs, ch.Value.Value+"|"+ch.Value.UnitOfMeasure)
	}
	sort.Strings(pairs)
	return pairs
}

func TestRoundTripPreservesValueUnitPairs(t *testing.T) {
	original := &intent.Intent{
		Name:        "Remote Surgery Slice",
		Description: "Ultra reliable low latency slice",
		ServiceSpecCharacteristic: []intent.Characteristic{
			{Name: "Delay tolerance", Value: intent.CharacteristicValue{Value: "5", UnitOfMeasure: "ms"}},
			{Name: "Availability", Value: intent.CharacteristicValue{Value: "99.999", UnitOfMeasure: "percent"}},
			{Name: "Guaranteed bandwidth", Value: intent.CharacteristicValue{Value: "100000", UnitOfMeasure: "kbps"}},
			{Name: "Area of service", Value: intent.CharacteristicValue{Value: "Region North", UnitOfMeasure: ""}},
		},
	}

	c := NewConverter()
	icmIntent, err := c.ToICM(original)
	require.NoError(t, err)

	back, err := ToSimple(icmIntent)
	require.NoError(t, err)

	assert.Equal(t, original.Name, back.Name)
	assert.Equal(t, original.Description, back.Description)
	assert.Equal(t, valueUnitPairs(original), valueUnitPairs(back))
	assert.Len(t, back.ServiceSpecCharacteristic, len(original.ServiceSpecCharacteristic))
}

func TestRoundTripSurvivesJSONSerialization(t *testing.T) {
	original := gamingIntent()

	c := NewConverter()
	icmIntent, err := c.ToICM(original)
	require.NoError(t, err)

	data, err := icmIntent.ToJSON()
	require.NoError(t, err)

	var decoded Intent
	require.NoError(t, json.Unmarshal(data, &decoded))

	back, err := ToSimple(&decoded)
	require.NoError(t, err)

	assert.Equal(t, original.Name, back.Name)
	assert.Equal(t, valueUnitPairs(original), valueUnitPairs(back))
}

func TestReverseNameReconstruction(t *testing.T) {
	c := NewConverter()
	in := &intent.Intent{
		Name:        "Slice",
		Description: "desc",
		ServiceSpecCharacteristic: []intent.Characteristic{
			{Name: "Delay tolerance", Value: intent.CharacteristicValue{Value: "20", UnitOfMeasure: "ms"}},
			{Name: "Bandwidth guaranteed", Value: intent.CharacteristicValue{Value: "50", UnitOfMeasure: "Mbps"}},
			{Name: "Availability", Value: intent.CharacteristicValue{Value: "99.9", UnitOfMeasure: "percent"}},
		},
	}

	icmIntent, err := c.ToICM(in)
	require.NoError(t, err)
	back, err := ToSimple(icmIntent)
	require.NoError(t, err)

	require.Len(t, back.ServiceSpecCharacteristic, 3)
	assert.Equal(t, "Delay tolerance", back.ServiceSpecCharacteristic[0].Name)
	// "Bandwidth guaranteed" normalized to property "Bandwidth"; the
	// reverse direction rebuilds a different surface form. Exact name
	// recovery is not part of the round-trip guarantee.
	assert.Equal(t, "Guaranteed bandwidth", back.ServiceSpecCharacteristic[1].Name)
	assert.Equal(t, "Availability", back.ServiceSpecCharacteristic[2].Name)
}

func TestReverseSkipsNonPropertyExpectations(t *testing.T) {
	in := &Intent{
		Ctx:         Context,
		Type:        TypeIntent,
		ID:          "#intent-1",
		Name:        "Slice",
		Description: "desc",
		HasExpectation: []Expectation{
			DeliveryExpectation{
				Type:       TypeDeliveryExpectation,
				ID:         "#expectation-1",
				Target:     TargetRef{ID: "#target-1"},
				TargetType: "NetworkSlice",
			},
			PropertyExpectation{
				Type:   TypePropertyExpectation,
				ID:     "#expectation-2",
				Target: TargetRef{ID: "#target-1"},
				ExpectationCondition: leafCondition(OpEqual, &Clause{
					Property: "Availability",
					Value:    ClauseValue{Value: 99.9, Unit: "percent"},
				}),
			},
			ReportingExpectation{
				Type:           TypeReportingExpectation,
				ID:             "#expectation-3",
				Target:         TargetRef{ID: "#intent-1"},
				ReportTriggers: []string{"imo:IntentAccepted"},
			},
		},
		Target: []Target{{ID: "#target-1", Type: TypeTarget, ResourceType: "NetworkSlice"}},
	}

	back, err := ToSimple(in)
	require.NoError(t, err)
	require.Len(t, back.ServiceSpecCharacteristic, 1)
	assert.Equal(t, "Availability", back.ServiceSpecCharacteristic[0].Name)
	assert.Equal(t, "99.9", back.ServiceSpecCharacteristic[0].Value.Value)
}

func TestReverseSkipsCompoundConditions(t *testing.T) {
	in := &Intent{
		Name:        "Slice",
		Description: "desc",
		HasExpectation: []Expectation{
			PropertyExpectation{
				Type:   TypePropertyExpectation,
				ID:     "#expectation-1",
				Target: TargetRef{ID: "#target-1"},
				ExpectationCondition: Condition{
					Type: TypeCondition,
					AllOf: []Condition{
						leafCondition(OpSmaller, &Clause{Property: "Delay", Value: ClauseValue{Value: int64(20), Unit: "ms"}}),
					},
				},
			},
		},
	}

	back, err := ToSimple(in)
	require.NoError(t, err)
	assert.Empty(t, back.ServiceSpecCharacteristic)
}

func TestFormatTypedValue(t *testing.T) {
	assert.Equal(t, "20", formatTypedValue(json.Number("20")))
	assert.Equal(t, "20.0", formatTypedValue(json.Number("20.0")))
	assert.Equal(t, "20", formatTypedValue(int64(20)))
	assert.Equal(t, "20", formatTypedValue(float64(20)))
	assert.Equal(t, "99.999", formatTypedValue(99.999))
	assert.Equal(t, "text", formatTypedValue("text"))
	assert.Equal(t, "", formatTypedValue(nil))
}

func TestRoundTripKeepsFloatLiteralTrailingZero(t *testing.T) {
	original := &intent.Intent{
		Name:        "Slice",
		Description: "desc",
		ServiceSpecCharacteristic: []intent.Characteristic{
			{Name: "Delay tolerance", Value: intent.CharacteristicValue{Value: "20.0", UnitOfMeasure: "ms"}},
			{Name: "Availability", Value: intent.CharacteristicValue{Value: "99.90", UnitOfMeasure: "percent"}},
		},
	}

	c := NewConverter()
	icmIntent, err := c.ToICM(original)
	require.NoError(t, err)

	// In-memory round trip.
	back, err := ToSimple(icmIntent)
	require.NoError(t, err)
	assert.Equal(t, valueUnitPairs(original), valueUnitPairs(back))
	assert.Equal(t, "20.0", back.ServiceSpecCharacteristic[0].Value.Value)

	// Serialized round trip: the literal must also survive the JSON
	// checkpoint form, including on the wire.
	data, err := icmIntent.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"@value": 20.0`)

	var decoded Intent
	require.NoError(t, json.Unmarshal(data, &decoded))
	back, err = ToSimple(&decoded)
	require.NoError(t, err)
	assert.Equal(t, "20.0", back.ServiceSpecCharacteristic[0].Value.Value)
	assert.Equal(t, "99.90", back.ServiceSpecCharacteristic[1].Value.Value)
}
