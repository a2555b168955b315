package characters

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadPersona reads a single persona definition from a JSON file.
func LoadPersona(path string) (Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("reading persona file: %w", err)
	}

	persona := Persona{}
	if err := json.Unmarshal(data, &persona); err != nil {
		return Persona{}, fmt.Errorf("parsing persona file %s: %w", filepath.Base(path), err)
	}
	if persona.Name == "" {
		return Persona{}, fmt.Errorf("persona file %s: %w", filepath.Base(path), ErrMissingName)
	}

	return persona, nil
}

// LoadPersonas reads every .json file in dir, sorted by filename so load
// order is stable across platforms.
func LoadPersonas(dir string) ([]Persona, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading persona directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	personas := make([]Persona, 0, len(names))
	for _, name := range names {
		persona, err := LoadPersona(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		personas = append(personas, persona)
	}

	return personas, nil
}
