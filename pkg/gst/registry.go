package gst

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed gst.json
var defaultGST []byte

// Registry answers lookup and membership queries over the loaded GST
// characteristic catalog. It is immutable after construction.
type Registry struct {
	specs  []*CharacteristicSpec
	byName map[string]*CharacteristicSpec
}

// gstDocument mirrors the GST specification JSON layout.
type gstDocument struct {
	Name                      string               `json:"name,omitempty"`
	Version                   string               `json:"version,omitempty"`
	ServiceSpecCharacteristic []CharacteristicSpec `json:"serviceSpecCharacteristic"`
}

// NewRegistry builds a registry from an explicit list of specifications.
// Names must be unique; value types must be known.
func NewRegistry(specs []CharacteristicSpec) (*Registry, error) {
	r := &Registry{
		specs:  make([]*CharacteristicSpec, 0, len(specs)),
		byName: make(map[string]*CharacteristicSpec, len(specs)),
	}
	for i := range specs {
		s := specs[i]
		if s.Name == "" {
			return nil, fmt.Errorf("characteristic %d: empty name", i)
		}
		if !s.ValueType.Valid() {
			return nil, fmt.Errorf("characteristic %q: unknown value type %q", s.Name, s.ValueType)
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("characteristic %q: duplicate name", s.Name)
		}
		r.specs = append(r.specs, &s)
		r.byName[s.Name] = &s
	}
	return r, nil
}

// ParseGST loads a registry from a GST specification JSON document of
// the form {"serviceSpecCharacteristic": [...]}.
func ParseGST(data []byte) (*Registry, error) {
	var doc gstDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse gst json: %w", err)
	}
	if len(doc.ServiceSpecCharacteristic) == 0 {
		return nil, fmt.Errorf("gst document has no serviceSpecCharacteristic entries")
	}
	return NewRegistry(doc.ServiceSpecCharacteristic)
}

// Default returns a registry built from the embedded GST catalog
// (derived from GST External v10.0.0). It panics only if the embedded
// catalog is corrupt, which is a build defect.
func Default() *Registry {
	r, err := ParseGST(defaultGST)
	if err != nil {
		panic(fmt.Sprintf("embedded gst catalog is invalid: %v", err))
	}
	return r
}

// Lookup returns the specification registered under name, exact match
// only. The second return reports whether the name is registered.
func (r *Registry) Lookup(name string) (*CharacteristicSpec, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// AllNames returns the registered names in insertion order.
func (r *Registry) AllNames() []string {
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Name
	}
	return names
}

// AllSpecifications returns the registered specifications in insertion
// order. The returned slice is a copy; the specs it points at are shared
// and must not be mutated.
func (r *Registry) AllSpecifications() []*CharacteristicSpec {
	out := make([]*CharacteristicSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Len returns the number of registered characteristics.
func (r *Registry) Len() int {
	return len(r.specs)
}
