package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "defectmine.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse config schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("load config schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Schema returns the JSON schema configs are validated against.
func Schema() string {
	return schemaJSON
}

// Validate checks the config against the schema and the rules the schema
// cannot express.
func (c *Config) Validate() error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Projects))
	for _, p := range c.Projects {
		if seen[p.Name] {
			return fmt.Errorf("invalid config: duplicate project %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
