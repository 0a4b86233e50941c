package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the YAML override file layout:
//
//	models:
//	  - model: gpt-4o
//	    input_per_1k: 0.0025
//	    output_per_1k: 0.01
type fileSchema struct {
	Models []Entry `yaml:"models"`
}

// LoadFile merges pricing entries from a YAML file over the built-in
// table. Entries with a known model replace the built-in price; new
// models are added. Must be called before the catalog is shared.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pricing file: %w", err)
	}

	var file fileSchema
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse pricing file: %w", err)
	}

	for _, e := range file.Models {
		if e.Model == "" {
			return fmt.Errorf("pricing file entry missing model name")
		}
		if e.InputPerThousand < 0 || e.OutputPerThousand < 0 {
			return fmt.Errorf("pricing file entry for %q has negative price", e.Model)
		}
		c.entries[e.Model] = e
	}

	c.logger.Info("loaded pricing overrides", "path", path, "models", len(file.Models))
	return nil
}
