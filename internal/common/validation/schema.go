// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r *ValidationResult) ErrorString() string {
	if r.Valid {
		return ""
	}
	out := ""
	for i, e := range r.Errors {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return out
}

// Validate checks data against a JSON schema expressed as a Go map.
func Validate(data map[string]interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}

// ApplicationSchema validates an anonymous exhibitor submission before
// any record is created.
var ApplicationSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"applicant", "business"},
	"properties": map[string]interface{}{
		"applicant": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"name", "email"},
			"properties": map[string]interface{}{
				"name":    map[string]interface{}{"type": "string", "minLength": 1},
				"email":   map[string]interface{}{"type": "string", "format": "email"},
				"phone":   map[string]interface{}{"type": "string"},
				"address": map[string]interface{}{"type": "string"},
			},
		},
		"business": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"companyName", "productDescription"},
			"properties": map[string]interface{}{
				"companyName":          map[string]interface{}{"type": "string", "minLength": 1},
				"productDescription":   map[string]interface{}{"type": "string", "minLength": 1},
				"rawMaterialOrigin":    map[string]interface{}{"type": "string"},
				"localTransformation":  map[string]interface{}{"type": "string"},
				"employeeCount":        map[string]interface{}{"type": "integer", "minimum": 0},
				"qualityCertification": map[string]interface{}{"type": "string"},
			},
		},
	},
}

// EvaluationSchema validates the wire shape of an evaluation
// submission. Rating range and rubric completeness are enforced by the
// scoring engine afterwards.
var EvaluationSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"ratings"},
	"properties": map[string]interface{}{
		"ratings": map[string]interface{}{
			"type": "object",
			"additionalProperties": map[string]interface{}{
				"type":    "integer",
				"minimum": 0,
				"maximum": 5,
			},
		},
		"comments": map[string]interface{}{
			"type": "object",
			"additionalProperties": map[string]interface{}{
				"type": "string",
			},
		},
		"decision": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"APPROUVE", "REJETE"},
		},
		"reason": map[string]interface{}{"type": "string"},
	},
}
