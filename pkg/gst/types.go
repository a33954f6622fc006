// Package gst holds the GST (Generic Slice Template) characteristic
// catalog used to ground and validate translated intents. The catalog is
// loaded once and is immutable afterwards, so a single Registry can be
// shared by concurrent callers without synchronization.
package gst

import "fmt"

// ValueType enumerates the GST characteristic value types.
type ValueType string

const (
	ValueTypeInteger ValueType = "INTEGER"
	ValueTypeFloat   ValueType = "FLOAT"
	ValueTypeText    ValueType = "TEXT"
	ValueTypeBinary  ValueType = "BINARY"
	ValueTypeEnum    ValueType = "ENUM"
	ValueTypeSet     ValueType = "SET"
)

// Valid reports whether vt is one of the known GST value types.
func (vt ValueType) Valid() bool {
	switch vt {
	case ValueTypeInteger, ValueTypeFloat, ValueTypeText, ValueTypeBinary, ValueTypeEnum, ValueTypeSet:
		return true
	}
	return false
}

// CharacteristicSpec describes a single GST service characteristic as
// declared by the GST External specification.
type CharacteristicSpec struct {
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ValueType     ValueType `json:"valueType"`
	UnitOfMeasure string    `json:"unitOfMeasure,omitempty"`
}

func (cs *CharacteristicSpec) String() string {
	return fmt.Sprintf("CharacteristicSpec{name=%s, type=%s}", cs.Name, cs.ValueType)
}
