package httpapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const assistSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "note": { "type": "string" },
    "prompt": { "type": "string" }
  },
  "additionalProperties": false
}`

const actionsSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["note"],
  "properties": {
    "note": { "type": "string" }
  },
  "additionalProperties": false
}`

var (
	assistSchemaLoader  = gojsonschema.NewStringLoader(assistSchemaJSON)
	actionsSchemaLoader = gojsonschema.NewStringLoader(actionsSchemaJSON)
)

// validateBody checks body against schema and joins every violation into one error.
func validateBody(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("invalid request: %s", strings.Join(issues, "; "))
}
