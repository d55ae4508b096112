// Package docschema performs optional structural validation of a decoded,
// normalized document against the external document format of §6: a
// mapping with a recognized "class" discriminator and well-shaped ports.
package docschema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema is the JSON Schema for the CommandLineTool/ExpressionTool/
// Workflow document shape described in spec §6. It only constrains the
// fields the loader and runnables actually depend on; tool/workflow-
// specific fields (baseCmd, expression, steps, ...) are left open since
// their presence is already branch-dispatched on "class" elsewhere.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["class"],
  "properties": {
    "class": {"enum": ["CommandLineTool", "ExpressionTool", "Workflow"]},
    "inputs": {"type": "array", "items": {"$ref": "#/$defs/port"}},
    "outputs": {"type": "array", "items": {"$ref": "#/$defs/port"}}
  },
  "$defs": {
    "port": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string"},
        "depth": {"type": "integer", "minimum": 0},
        "links": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["source"],
            "properties": {
              "source": {"type": "string"},
              "position": {"type": "integer"}
            }
          }
        }
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compile() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource("cwl-core://document.json", strings.NewReader(documentSchema)); err != nil {
			compileErr = fmt.Errorf("docschema: adding resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("cwl-core://document.json")
	})
	return compiled, compileErr
}

// Validate checks doc (a decoded, normalized Value tree) against the
// document schema. It round-trips doc through JSON so jsonschema/v5's
// validator, which expects JSON-decoded values, sees the same shape a
// JSON document would have.
func Validate(doc interface{}) error {
	schema, err := compile()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docschema: marshaling document: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(encoded, &v); err != nil {
		return fmt.Errorf("docschema: re-decoding document: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("docschema: %w", err)
	}
	return nil
}
