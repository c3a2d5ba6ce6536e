// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validApplicationPayload() map[string]interface{} {
	return map[string]interface{}{
		"applicant": map[string]interface{}{
			"name":  "Awa Diop",
			"email": "awa@example.org",
		},
		"business": map[string]interface{}{
			"companyName":        "Karite Naturel",
			"productDescription": "Shea butter cosmetics",
		},
	}
}

func TestValidate_ApplicationAccepted(t *testing.T) {
	result, err := Validate(validApplicationPayload(), ApplicationSchema)
	assert.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_ApplicationMissingBusiness(t *testing.T) {
	payload := validApplicationPayload()
	delete(payload, "business")

	result, err := Validate(payload, ApplicationSchema)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.ErrorString(), "business")
}

func TestValidate_ApplicationEmptyName(t *testing.T) {
	payload := validApplicationPayload()
	payload["applicant"].(map[string]interface{})["name"] = ""

	result, err := Validate(payload, ApplicationSchema)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidate_EvaluationAccepted(t *testing.T) {
	result, err := Validate(map[string]interface{}{
		"ratings":  map[string]interface{}{"originalite": 4},
		"comments": map[string]interface{}{"originalite": "Bon produit"},
		"decision": "APPROUVE",
	}, EvaluationSchema)
	assert.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidate_EvaluationUnknownDecision(t *testing.T) {
	result, err := Validate(map[string]interface{}{
		"ratings":  map[string]interface{}{"originalite": 4},
		"decision": "MAYBE",
	}, EvaluationSchema)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidate_EvaluationNonIntegerRating(t *testing.T) {
	result, err := Validate(map[string]interface{}{
		"ratings": map[string]interface{}{"originalite": "four"},
	}, EvaluationSchema)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
}
