package story

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads a story definition from a JSON file.
func Load(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading story file: %w", err)
	}

	definition := Definition{}
	if err := json.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("parsing story file %s: %w", filepath.Base(path), err)
	}

	story, err := New(definition)
	if err != nil {
		return nil, fmt.Errorf("story file %s: %w", filepath.Base(path), err)
	}
	return story, nil
}
