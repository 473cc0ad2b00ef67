// Package lenders loads the embedded lender rule sets. Every document is
// validated against the JSON Schema before it is decoded; a bad config
// fails startup rather than silently skewing quotes.
package lenders

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dkskfkalsk/arena-mortgage-calculator2/internal/domain/model"
)

//go:embed schema.json
var schemaDoc string

//go:embed configs/*.json
var configFS embed.FS

// Load parses and validates every embedded lender config. Files load in
// name order, which is the order lenders appear in rendered reports.
func Load() ([]*model.LenderConfig, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(configFS, "configs")
	if err != nil {
		return nil, fmt.Errorf("reading embedded lender configs: %w", err)
	}

	var configs []*model.LenderConfig
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		cfg, err := loadOne(schema, "configs/"+entry.Name())
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	if len(configs) == 0 {
		return nil, fmt.Errorf("no lender configs embedded")
	}
	return configs, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("lender-config.json", strings.NewReader(schemaDoc)); err != nil {
		return nil, fmt.Errorf("adding lender schema resource: %w", err)
	}
	schema, err := compiler.Compile("lender-config.json")
	if err != nil {
		return nil, fmt.Errorf("compiling lender schema: %w", err)
	}
	return schema, nil
}

func loadOne(schema *jsonschema.Schema, path string) (*model.LenderConfig, error) {
	raw, err := configFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	var cfg model.LenderConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &cfg, nil
}
