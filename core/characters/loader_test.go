package characters

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPersonasReadsJSONFilesInStableOrder(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "b_jacek.json"), `{"name": "Jacek", "traits": ["logical"]}`)
	writeFile(t, filepath.Join(dir, "a_mira.json"), `{"name": "Mira", "generation_params": {"temperature": 0.5}}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a persona")

	personas, err := LoadPersonas(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
	if personas[0].Name != "Mira" || personas[1].Name != "Jacek" {
		t.Fatalf("expected filename order Mira, Jacek, got %q, %q", personas[0].Name, personas[1].Name)
	}
	if personas[0].GenerationParams.Temperature != 0.5 {
		t.Fatalf("expected explicit temperature to load, got %v", personas[0].GenerationParams.Temperature)
	}
}

func TestLoadPersonaRejectsNamelessDefinition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	writeFile(t, path, `{"traits": ["quiet"]}`)

	if _, err := LoadPersona(path); err == nil {
		t.Fatalf("expected an error for a persona without a name")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}
