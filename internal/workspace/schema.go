package workspace

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
)

// configSchema constrains WorkspaceConfig's top-level shape: the
// Config round-trip testable property requires that a config file
// with an unrecognized top-level field be rejected rather than
// silently accepted (and dropped on the next write).
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["version", "name", "mode", "created", "resources", "goals"],
  "properties": {
    "version": {"type": "string"},
    "name": {"type": "string"},
    "mode": {"type": "string", "enum": ["review", "develop", "mixed"]},
    "created": {"type": "string"},
    "resources": {
      "type": "object",
      "additionalProperties": false,
      "required": ["review", "develop"],
      "properties": {
        "review": {"type": "array"},
        "develop": {"type": "array"}
      }
    },
    "goals": {"type": "array"}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(configSchema)

// validateSchema checks raw (the config file's bytes, as read from
// disk) against configSchema, returning an airerr.ErrConfig wrapping
// every violation found.
func validateSchema(raw []byte) error {
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return fmt.Errorf("%w: parse config: %w", airerr.ErrConfig, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(asMap))
	if err != nil {
		return fmt.Errorf("%w: run schema validation: %w", airerr.ErrConfig, err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		messages = append(messages, e.String())
	}

	return fmt.Errorf("%w: %s", airerr.ErrConfig, strings.Join(messages, "; "))
}
