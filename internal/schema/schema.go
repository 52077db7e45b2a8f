// Package schema validates YAML documents against CUE definitions.
package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// Validate checks a YAML document against a CUE schema. If definition is
// non-empty (for example "#Scenario") the document is unified with that
// definition instead of the schema root.
func Validate(filename string, doc, schemaSrc []byte, definition string) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileBytes(schemaSrc)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile CUE schema: %w", err)
	}
	if definition != "" {
		schemaVal = schemaVal.LookupPath(cue.ParsePath(definition))
		if !schemaVal.Exists() {
			return fmt.Errorf("schema definition %s not found", definition)
		}
	}

	file, err := cueyaml.Extract(filename, doc)
	if err != nil {
		return fmt.Errorf("cannot parse YAML %s: %w", filename, err)
	}
	docVal := ctx.BuildFile(file)
	if err := docVal.Err(); err != nil {
		return fmt.Errorf("cannot build %s: %w", filename, err)
	}

	final := schemaVal.Unify(docVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateFiles validates a YAML file against a CUE schema file.
func ValidateFiles(configFile, cueFile, definition string) error {
	doc, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	schemaSrc, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	return Validate(configFile, doc, schemaSrc, definition)
}
