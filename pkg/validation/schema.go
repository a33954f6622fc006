package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/thc1006/tmf921-intent-bridge/pkg/intent"
)

//go:embed intent.schema.json
var intentSchema []byte

const schemaResource = "tmf921-intent.schema.json"

// SchemaValidator checks the wire form of a candidate intent against
// the TMF921 intent JSON schema before typed parsing. The schema layer
// catches missing keys and wrong shapes that the typed model cannot
// distinguish from zero values.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles the embedded intent schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	var doc any
	if err := json.Unmarshal(intentSchema, &doc); err != nil {
		return nil, fmt.Errorf("parse schema json: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaResource, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	s, err := c.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{schema: s}, nil
}

// ValidateBytes validates raw JSON and, on success, returns the typed
// intent.
func (sv *SchemaValidator) ValidateBytes(b []byte) (*intent.Intent, error) {
	var tmp any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if err := sv.schema.Validate(tmp); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	var in intent.Intent
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &in, nil
}
