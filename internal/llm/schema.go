package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var partStringFields = []string{
	"product_name", "common_name_en", "common_name_th", "uom",
	"characteristics_of_material_en", "characteristics_of_material_th",
	"estimated_capacity_machine_year", "quantity_to_use",
	"function_en", "function_th", "where_used_en", "where_used_th",
	"eccn", "hts", "coo",
}

// BuildPartJSONSchema returns the JSON-Schema (draft 2020-12 subset) every completion is checked against.
// Every field is optional.
func BuildPartJSONSchema() map[string]any {
	props := make(map[string]any, len(partStringFields)+2)
	for _, f := range partStringFields {
		props[f] = map[string]any{"type": "string"}
	}
	props["tags"] = map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	props["sources"] = map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []string{"name"},
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"url":  map[string]any{"type": "string"},
			},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// ValidateJSONAgainstSchema validates raw JSON bytes against a generic schema map.
func ValidateJSONAgainstSchema(schema map[string]any, data []byte) error {
	sch, err := compileSchema(schema)
	if err != nil {
		return err
	}
	return validateWith(sch, data)
}

var partSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compileSchema(BuildPartJSONSchema())
})

// ValidatePartJSON validates against the cached part schema.
func ValidatePartJSON(data []byte) error {
	sch, err := partSchema()
	if err != nil {
		return err
	}
	return validateWith(sch, data)
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("schema marshal: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
}

func validateWith(sch *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
