package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/medbill-pipeline/constants"
)

// schemaOverride is the on-disk shape of one category's override.
type schemaOverride struct {
	Columns       []string `json:"columns"`
	FreeTextIndex *int     `json:"free_text_index,omitempty"`
	Instructions  []string `json:"instructions,omitempty"`
}

// overrideFileSchema constrains the override file: top-level keys must be
// taxonomy members, each override must carry at least one column.
func overrideFileSchema() map[string]any {
	perCategory := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"columns"},
		"properties": map[string]any{
			"columns": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string", "minLength": 1},
			},
			"free_text_index": map[string]any{"type": "integer", "minimum": -1},
			"instructions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
	props := map[string]any{}
	for _, cat := range constants.AsStringSlice() {
		props[cat] = perCategory
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// LoadOverrides layers user-supplied schema tweaks from a JSON file onto the
// registry. The file is validated structurally before anything is applied so
// a half-broken file changes nothing.
func (r *Registry) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema overrides: %w", err)
	}
	if err := validateAgainstSchema(overrideFileSchema(), data); err != nil {
		return fmt.Errorf("schema overrides %s: %w", path, err)
	}

	var overrides map[string]schemaOverride
	if err := json.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("decode schema overrides: %w", err)
	}

	for name, o := range overrides {
		cat, ok := constants.ParseCategory(name)
		if !ok {
			return fmt.Errorf("schema overrides: unknown category %q", name)
		}
		s := r.schemas[cat]
		s.Row.Columns = o.Columns
		s.Row.MinFields = len(o.Columns)
		if o.FreeTextIndex != nil {
			s.Row.FreeTextIndex = *o.FreeTextIndex
		} else if s.Row.FreeTextIndex >= len(o.Columns) {
			s.Row.FreeTextIndex = len(o.Columns) - 1
		}
		if o.Instructions != nil {
			s.Instructions = o.Instructions
		}
		r.schemas[cat] = s
	}
	return nil
}

// validateAgainstSchema validates data against schemaMap.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
