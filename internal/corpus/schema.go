package corpus

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const questionSchemaURL = "schema://question.json"

// questionSchema describes one record of the question bank file, which is
// an array of such objects as produced by the offline importer.
var questionSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "topic", "question", "options", "correct"},
	"properties": map[string]any{
		"id":       map[string]any{"type": "string", "minLength": 1},
		"topic":    map[string]any{"type": "string"},
		"question": map[string]any{"type": "string", "minLength": 1},
		"options": map[string]any{
			"type":     "array",
			"minItems": 2,
			"items":    map[string]any{"type": "string"},
		},
		"correct":       map[string]any{"type": "string"},
		"misconception": map[string]any{"type": []any{"string", "null"}},
		"difficulty":    map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
		"error_type": map[string]any{
			"type": []any{"string", "null"},
			"enum": []any{"conceptual", "calculation", "fact_recall", nil},
		},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func questionValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a decoded JSON value, not Go-typed maps with
		// arbitrary element types, so round-trip through encoding/json.
		defBytes, err := json.Marshal(questionSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal question schema: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			compileErr = fmt.Errorf("parse question schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(questionSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add question schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(questionSchemaURL)
	})
	return compiledSchema, compileErr
}

// validateQuestion checks one raw record against the question schema.
func validateQuestion(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	sch, err := questionValidator()
	if err != nil {
		return err
	}
	return sch.Validate(doc)
}
