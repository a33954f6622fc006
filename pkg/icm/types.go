// Package icm implements the TM Forum Intent Common Model (ICM) JSON-LD
// representation of intents and the bidirectional conversion between the
// flat TMF921 form and the hierarchical expectation/target/condition
// form, per TR290A v3.6.0.
package icm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSON-LD constants fixed by the TM Forum Intent Ontology release in use.
const (
	Context = "http://tio.models.tmforum.org/tio/v3.6.0/context.json"

	TypeIntent               = "icm:Intent"
	TypeTarget               = "icm:Target"
	TypePropertyExpectation  = "icm:PropertyExpectation"
	TypeDeliveryExpectation  = "icm:DeliveryExpectation"
	TypeReportingExpectation = "icm:ReportingExpectation"
	TypeCondition            = "log:Condition"
)

// Operator is a TR292D quantity operator used as a condition key.
type Operator string

const (
	OpSmaller Operator = "quan:smaller"
	OpGreater Operator = "quan:greater"
	OpEqual   Operator = "quan:equal"
)

// Intent is the ICM JSON-LD intent document.
type Intent struct {
	Ctx            string        `json:"@context"`
	Type           string        `json:"@type"`
	ID             string        `json:"@id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	HasExpectation []Expectation `json:"hasExpectation"`
	Target         []Target      `json:"target"`
}

// Expectation is the closed set of ICM expectation variants, tagged by
// "@type" on the wire.
type Expectation interface {
	ExpectationType() string
}

// TargetRef is a weak reference to a Target by identifier.
type TargetRef struct {
	ID string `json:"@id"`
}

// PropertyExpectation expresses one desired property of a target via a
// condition.
type PropertyExpectation struct {
	Type                 string    `json:"@type"`
	ID                   string    `json:"@id"`
	Target               TargetRef `json:"target"`
	ExpectationCondition Condition `json:"expectationCondition"`
}

func (PropertyExpectation) ExpectationType() string { return TypePropertyExpectation }

// DeliveryExpectation expresses that a resource of TargetType should be
// delivered.
type DeliveryExpectation struct {
	Type       string    `json:"@type"`
	ID         string    `json:"@id"`
	Target     TargetRef `json:"target"`
	TargetType string    `json:"targetType"`
}

func (DeliveryExpectation) ExpectationType() string { return TypeDeliveryExpectation }

// ReportingExpectation expresses how intent status should be reported.
type ReportingExpectation struct {
	Type              string    `json:"@type"`
	ID                string    `json:"@id"`
	Target            TargetRef `json:"target"`
	ReportDestination []string  `json:"reportDestination,omitempty"`
	ReportTriggers    []string  `json:"reportTriggers,omitempty"`
}

func (ReportingExpectation) ExpectationType() string { return TypeReportingExpectation }

// Target identifies a resource the intent applies to.
type Target struct {
	ID           string         `json:"@id"`
	Type         string         `json:"@type"`
	ResourceType string         `json:"resourceType,omitempty"`
	ChooseFrom   map[string]any `json:"chooseFrom,omitempty"`
}

// ClauseValue is the typed value/unit pair inside a relational clause.
type ClauseValue struct {
	Value any    `json:"@value"`
	Unit  string `json:"quan:unit"`
}

// UnmarshalJSON decodes the value with UseNumber so numeric literals
// keep their exact text (json.Number) instead of collapsing to float64.
func (cv *ClauseValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value json.RawMessage `json:"@value"`
		Unit  string          `json:"quan:unit"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cv.Unit = raw.Unit
	if len(raw.Value) == 0 {
		cv.Value = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw.Value))
	dec.UseNumber()
	return dec.Decode(&cv.Value)
}

// Clause is one relational constraint on a named property.
type Clause struct {
	Property string      `json:"property"`
	Value    ClauseValue `json:"value"`
}

// Condition holds exactly one relational clause (leaf) or one logical
// list of sub-conditions (compound); the two forms are mutually
// exclusive.
type Condition struct {
	Type    string      `json:"@type"`
	Smaller *Clause     `json:"quan:smaller,omitempty"`
	Greater *Clause     `json:"quan:greater,omitempty"`
	Equal   *Clause     `json:"quan:equal,omitempty"`
	AllOf   []Condition `json:"log:allOf,omitempty"`
	AnyOf   []Condition `json:"log:anyOf,omitempty"`
}

// RelationalClause returns the single populated relational clause and
// its operator. ok is false for compound or empty conditions.
func (c *Condition) RelationalClause() (Operator, *Clause, bool) {
	switch {
	case c.Smaller != nil:
		return OpSmaller, c.Smaller, true
	case c.Greater != nil:
		return OpGreater, c.Greater, true
	case c.Equal != nil:
		return OpEqual, c.Equal, true
	}
	return "", nil, false
}

// leafCondition builds a leaf condition with the clause keyed by op.
func leafCondition(op Operator, clause *Clause) Condition {
	c := Condition{Type: TypeCondition}
	switch op {
	case OpSmaller:
		c.Smaller = clause
	case OpGreater:
		c.Greater = clause
	case OpEqual:
		c.Equal = clause
	}
	return c
}

// UnmarshalJSON decodes the expectation list into the concrete variant
// types, dispatching on "@type".
func (in *Intent) UnmarshalJSON(data []byte) error {
	type alias Intent
	aux := struct {
		*alias
		HasExpectation []json.RawMessage `json:"hasExpectation"`
	}{alias: (*alias)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	in.HasExpectation = make([]Expectation, 0, len(aux.HasExpectation))
	for i, raw := range aux.HasExpectation {
		exp, err := decodeExpectation(raw)
		if err != nil {
			return fmt.Errorf("hasExpectation[%d]: %w", i, err)
		}
		in.HasExpectation = append(in.HasExpectation, exp)
	}
	return nil
}

func decodeExpectation(raw json.RawMessage) (Expectation, error) {
	var tag struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	switch tag.Type {
	case TypePropertyExpectation:
		var e PropertyExpectation
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	case TypeDeliveryExpectation:
		var e DeliveryExpectation
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	case TypeReportingExpectation:
		var e ReportingExpectation
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown expectation type %q", tag.Type)
}

// ToJSON serializes the ICM intent with indentation, the form used for
// checkpoint artifacts.
func (in *Intent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(in, "", "  ")
}
