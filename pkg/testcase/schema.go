package testcase

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// startRequestSchema validates the shape of a /test/start payload
// before it is decoded. Field-level semantics (non-empty ids, step
// counts) are still enforced by Spec.Validate after decoding.
const startRequestSchema = `{
  "type": "object",
  "required": ["test_cases"],
  "properties": {
    "test_cases": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "target_url", "steps"],
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string"},
          "description": {"type": "string"},
          "target_url": {"type": "string"},
          "steps": {"type": "array", "items": {"type": "string"}},
          "expected_results": {"type": "array", "items": {"type": "string"}},
          "priority": {"type": "string", "enum": ["low", "medium", "high"]}
        }
      }
    },
    "config": {
      "type": "object",
      "properties": {
        "browser_type": {"type": "string"},
        "headless": {"type": "boolean"},
        "viewport_width": {"type": "integer", "minimum": 0},
        "viewport_height": {"type": "integer", "minimum": 0},
        "timeout": {"type": "integer", "minimum": 0},
        "keep_browser_open": {"type": "boolean"},
        "use_existing_browser": {"type": "boolean"},
        "cdp_url": {"type": "string"},
        "max_steps": {"type": "integer", "minimum": 1},
        "parallel": {"type": "boolean"},
        "max_concurrent": {"type": "integer", "minimum": 1}
      }
    }
  }
}`

var startSchema = gojsonschema.NewStringLoader(startRequestSchema)

// ValidateStartPayload checks a raw /test/start body against the
// request schema and returns a single aggregated error.
func ValidateStartPayload(body []byte) error {
	result, err := gojsonschema.Validate(startSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("request validation failed: %s", strings.Join(msgs, "; "))
}
