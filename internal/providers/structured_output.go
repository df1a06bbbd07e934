package providers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON schema used to check model output after it has
// been parsed.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// CompileSchema compiles a raw JSON schema document.
func CompileSchema(name string, schemaRaw json.RawMessage) (*Schema, error) {
	url := name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(schemaRaw)); err != nil {
		return nil, fmt.Errorf("failed to load %s schema: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
	}
	return &Schema{name: name, schema: schema}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name string, schemaRaw json.RawMessage) *Schema {
	s, err := CompileSchema(name, schemaRaw)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks v, which must marshal to JSON, against the schema.
func (s *Schema) Validate(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s for validation: %w", s.name, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode %s for validation: %w", s.name, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("%s does not match schema: %w", s.name, err)
	}
	return nil
}
