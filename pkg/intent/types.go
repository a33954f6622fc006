// Package intent defines the simple TMF921 intent model produced by LLM
// translation, plus the repair steps (name correction, value type
// correction, JSON extraction) applied to untrusted LLM output before
// validation.
package intent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Intent is the flat TMF921 intent representation.
type Intent struct {
	Name                      string           `json:"name"`
	Description               string           `json:"description"`
	ServiceSpecCharacteristic []Characteristic `json:"serviceSpecCharacteristic"`
}

// Characteristic is a single named requirement dimension of an intent.
type Characteristic struct {
	Name  string              `json:"name"`
	Value CharacteristicValue `json:"value"`
}

// CharacteristicValue carries the characteristic value as a string. The
// string form defers numeric coercion to validation time; LLM output
// frequently mixes strings, numbers and booleans for the same field, so
// UnmarshalJSON accepts all of them and renders a stable string.
type CharacteristicValue struct {
	Value         string `json:"value"`
	UnitOfMeasure string `json:"unitOfMeasure"`
}

// UnmarshalJSON accepts value payloads where "value" is a JSON string,
// number, boolean or array and normalizes them to the string form.
// Arrays are joined with ", " to match the SET rendering used by the
// type corrector.
func (cv *CharacteristicValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value         json.RawMessage `json:"value"`
		UnitOfMeasure string          `json:"unitOfMeasure"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cv.UnitOfMeasure = raw.UnitOfMeasure
	if len(raw.Value) == 0 {
		cv.Value = ""
		return nil
	}
	s, err := coerceScalar(raw.Value)
	if err != nil {
		return fmt.Errorf("characteristic value: %w", err)
	}
	cv.Value = s
	return nil
}

func coerceScalar(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		parts := make([]string, 0, len(arr))
		for _, el := range arr {
			p, err := coerceScalar(el)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return strings.Join(parts, ", "), nil
	}
	if string(raw) == "null" {
		return "", nil
	}
	return "", fmt.Errorf("unsupported value %s", string(raw))
}

// Clone returns a deep copy of the intent. Repair steps operate on
// copies so the original candidate stays untouched.
func (in *Intent) Clone() *Intent {
	out := &Intent{
		Name:        in.Name,
		Description: in.Description,
	}
	if in.ServiceSpecCharacteristic != nil {
		out.ServiceSpecCharacteristic = make([]Characteristic, len(in.ServiceSpecCharacteristic))
		copy(out.ServiceSpecCharacteristic, in.ServiceSpecCharacteristic)
	}
	return out
}

// ToJSON serializes the intent with indentation, the form used for
// checkpoint artifacts.
func (in *Intent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(in, "", "  ")
}

// FromJSON deserializes an intent from JSON.
func (in *Intent) FromJSON(data []byte) error {
	return json.Unmarshal(data, in)
}

func (in *Intent) String() string {
	return fmt.Sprintf("Intent{name=%s, characteristics=%d}", in.Name, len(in.ServiceSpecCharacteristic))
}
