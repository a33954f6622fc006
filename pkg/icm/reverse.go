package icm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/thc1006/tmf921-intent-bridge/pkg/intent"
)

// ToSimple converts an ICM intent back into the flat form. Only
// PropertyExpectations map back to characteristics; delivery and
// reporting expectations carry no characteristic payload and are
// skipped, as are compound conditions.
//
// Name recovery is lossy by construction: the forward conversion strips
// qualifier suffixes, so the reconstructed name is derived from the
// operator ("smaller" yields "<property> tolerance") and may differ from
// the original characteristic name. The (value, unit) pairs are
// preserved exactly.
func ToSimple(in *Intent) (*intent.Intent, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: icm intent", ErrMissingField)
	}

	out := &intent.Intent{
		Name:                      in.Name,
		Description:               in.Description,
		ServiceSpecCharacteristic: []intent.Characteristic{},
	}

	for _, exp := range in.HasExpectation {
		prop, ok := exp.(PropertyExpectation)
		if !ok {
			continue
		}
		op, clause, ok := prop.ExpectationCondition.RelationalClause()
		if !ok {
			continue
		}
		out.ServiceSpecCharacteristic = append(out.ServiceSpecCharacteristic, intent.Characteristic{
			Name: reconstructName(op, clause.Property),
			Value: intent.CharacteristicValue{
				Value:         formatTypedValue(clause.Value.Value),
				UnitOfMeasure: clause.Value.Unit,
			},
		})
	}
	return out, nil
}

func reconstructName(op Operator, property string) string {
	switch op {
	case OpSmaller:
		return property + " tolerance"
	case OpGreater:
		return "Guaranteed " + strings.ToLower(property)
	}
	return property
}

// formatTypedValue renders the typed clause value back into the string
// form used by the flat model. Numbers arrive as json.Number on both the
// forward-conversion and decode paths, so the original literal is
// returned verbatim; the remaining cases cover programmatically built
// documents.
func formatTypedValue(v any) string {
	switch val := v.(type) {
	case json.Number:
		return val.String()
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
