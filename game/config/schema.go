package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed scenario.schema.json
var scenarioSchemaJSON string

var (
	schemaOnce     sync.Once
	scenarioSchema *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("scenario.schema.json", strings.NewReader(scenarioSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add scenario schema: %w", err)
			return
		}
		scenarioSchema, schemaErr = compiler.Compile("scenario.schema.json")
	})
	return scenarioSchema, schemaErr
}

// ValidateDocument checks raw scenario bytes against the embedded JSON schema.
// YAML documents are normalized to JSON values first.
func ValidateDocument(data []byte, ext string) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
		// Validator wants encoding/json value types
		normalized, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("failed to normalize yaml: %w", err)
		}
		if err := json.Unmarshal(normalized, &doc); err != nil {
			return fmt.Errorf("failed to normalize yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse json: %w", err)
		}
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
