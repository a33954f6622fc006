package intent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacteristicValueUnmarshalCoercion(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"string", `{"value": "20", "unitOfMeasure": "ms"}`, "20"},
		{"integer", `{"value": 20, "unitOfMeasure": "ms"}`, "20"},
		{"float", `{"value": 99.999, "unitOfMeasure": "percent"}`, "99.999"},
		{"bool", `{"value": true, "unitOfMeasure": ""}`, "true"},
		{"array", `{"value": ["5QI 1", "5QI 2"], "unitOfMeasure": ""}`, "5QI 1, 5QI 2"},
		{"null", `{"value": null, "unitOfMeasure": ""}`, ""},
		{"missing", `{"unitOfMeasure": "ms"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cv CharacteristicValue
			require.NoError(t, json.Unmarshal([]byte(tt.in), &cv))
			assert.Equal(t, tt.want, cv.Value)
		})
	}
}

func TestIntentJSONRoundTrip(t *testing.T) {
	in := &Intent{
		Name:        "Gaming Slice",
		Description: "Low latency slice for cloud gaming",
		ServiceSpecCharacteristic: []Characteristic{
			{Name: "Delay tolerance", Value: CharacteristicValue{Value: "20", UnitOfMeasure: "ms"}},
		},
	}

	data, err := in.ToJSON()
	require.NoError(t, err)

	var back Intent
	require.NoError(t, back.FromJSON(data))
	assert.Equal(t, *in, back)
}

func TestCloneIsIndependent(t *testing.T) {
	in := &Intent{
		Name:        "Slice",
		Description: "desc",
		ServiceSpecCharacteristic: []Characteristic{
			{Name: "Availability", Value: CharacteristicValue{Value: "99.9", UnitOfMeasure: "percent"}},
		},
	}

	cp := in.Clone()
	cp.ServiceSpecCharacteristic[0].Name = "changed"
	cp.Name = "changed"

	assert.Equal(t, "Slice", in.Name)
	assert.Equal(t, "Availability", in.ServiceSpecCharacteristic[0].Name)
}
