package evaluator

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// Schema is a JSON schema document.
type Schema map[string]any

// Object builds an object schema. Additional properties are allowed.
func Object(properties map[string]any, required ...string) Schema {
	s := Schema{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Extend returns a copy of s with more properties and required keys.
func (s Schema) Extend(properties map[string]any, required ...string) Schema {
	out := maps.Clone(s)

	props := map[string]any{}
	if base, ok := s["properties"].(map[string]any); ok {
		maps.Copy(props, base)
	}
	maps.Copy(props, properties)
	out["properties"] = props

	var req []string
	if base, ok := s["required"].([]string); ok {
		req = append(req, base...)
	}
	for _, r := range required {
		if !slices.Contains(req, r) {
			req = append(req, r)
		}
	}
	if len(req) > 0 {
		out["required"] = req
	}
	return out
}

// Properties returns the names of the top-level properties.
func (s Schema) Properties() []string {
	props, _ := s["properties"].(map[string]any)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Schema fragments for object properties.
func String(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func Boolean(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func Number(description string, min, max float64) map[string]any {
	return map[string]any{"type": "number", "description": description, "minimum": min, "maximum": max}
}

func Array(description string, items map[string]any) map[string]any {
	return map[string]any{"type": "array", "description": description, "items": items}
}

func StringList(description string) map[string]any {
	return Array(description, map[string]any{"type": "string"})
}

// Base is the shape every matching dimension returns.
var Base = Object(map[string]any{
	"confidence": Number("Confidence score of the match using similarity", 0, 1),
	"positiveComments": map[string]any{
		"type":        "array",
		"description": "Up to 5 reasons for adding points",
		"maxItems":    5,
		"items":       map[string]any{"type": "string", "maxLength": 200},
	},
	"negativeComments": map[string]any{
		"type":        "array",
		"description": "Up to 5 reasons for deducting points",
		"maxItems":    5,
		"items":       map[string]any{"type": "string", "maxLength": 200},
	},
}, "confidence", "positiveComments", "negativeComments")

// Validate checks out against schema. A nil schema accepts anything.
func Validate(schema Schema, out map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	if out == nil {
		return fmt.Errorf("%w: empty output", ErrSchema)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(map[string]any(schema)), gojsonschema.NewGoLoader(out))
	if err != nil {
		return fmt.Errorf("validate output: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrSchema, strings.Join(errs, "; "))
	}
	return nil
}

// Decode copies a validated output map into target using json field names.
func Decode(out map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		TagName:    "json",
		Squash:     true,
		DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}
