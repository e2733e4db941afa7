package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed module.schema.json
var moduleSchemaJSON []byte

const moduleSchemaURL = "schema://ladder/module.json"

var (
	moduleSchemaOnce sync.Once
	moduleSchema     *jsonschema.Schema
	moduleSchemaErr  error
)

// compiledModuleSchema compiles the embedded module schema once.
func compiledModuleSchema() (*jsonschema.Schema, error) {
	moduleSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(moduleSchemaJSON))
		if err != nil {
			moduleSchemaErr = fmt.Errorf("parse module schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(moduleSchemaURL, doc); err != nil {
			moduleSchemaErr = fmt.Errorf("add module schema: %w", err)
			return
		}
		moduleSchema, moduleSchemaErr = c.Compile(moduleSchemaURL)
	})
	return moduleSchema, moduleSchemaErr
}

// validateDocument checks a decoded YAML document against the module schema.
func validateDocument(doc any) error {
	s, err := compiledModuleSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
