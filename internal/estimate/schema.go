package estimate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed result.schema.json
var resultSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("result.schema.json", bytes.NewReader(resultSchema)); err != nil {
			schemaErr = fmt.Errorf("load result schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("result.schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile result schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateJSON checks a serialized result mapping against the embedded schema.
func ValidateJSON(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode result json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	return nil
}

// Decode validates data against the schema and decodes it into an Estimate.
func Decode(data []byte) (*Estimate, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	e := New()
	if err := json.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}
