package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_ListifiesScalarReservedFields(t *testing.T) {
	doc := map[string]interface{}{
		"class":  "CommandLineTool",
		"inputs": map[string]interface{}{"id": "#x"},
	}

	got := Normalize(doc).(map[string]interface{})

	assert.Equal(t, "CommandLineTool", got["class"])
	assert.Equal(t, []interface{}{map[string]interface{}{"id": "#x"}}, got["inputs"])
}

func TestNormalize_LeavesAlreadyListFieldsAlone(t *testing.T) {
	doc := map[string]interface{}{
		"inputs": []interface{}{
			map[string]interface{}{"id": "#a"},
			map[string]interface{}{"id": "#b"},
		},
	}

	got := Normalize(doc).(map[string]interface{})
	assert.Len(t, got["inputs"], 2)
}

func TestNormalize_RecursesIntoNestedSteps(t *testing.T) {
	doc := map[string]interface{}{
		"steps": map[string]interface{}{
			"id":     "#step1",
			"inputs": map[string]interface{}{"id": "#step1/x"},
		},
	}

	got := Normalize(doc).(map[string]interface{})
	steps := got["steps"].([]interface{})
	assert.Len(t, steps, 1)

	step := steps[0].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"id": "#step1/x"}}, step["inputs"])
}

func TestNormalize_NonReservedScalarFieldUnchanged(t *testing.T) {
	doc := map[string]interface{}{"depth": 1, "value": "literal"}
	got := Normalize(doc).(map[string]interface{})
	assert.Equal(t, 1, got["depth"])
	assert.Equal(t, "literal", got["value"])
}

func TestNormalize_Idempotent(t *testing.T) {
	doc := map[string]interface{}{
		"inputs": []interface{}{map[string]interface{}{"id": "#a"}},
	}

	once := Normalize(doc)
	twice := Normalize(once)
	assert.Equal(t, once, twice)
}
