// Package jsonfile persists timeline snapshots as JSON documents on
// disk, one file per session, written atomically.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TitzMcgie/Metavern/core/timeline"
)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the snapshot through a temp file and renames it into
// place, so a crash mid-write never corrupts the previous save.
func (s *Store) Save(_ context.Context, history timeline.History) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(history.ID)); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

func (s *Store) Load(_ context.Context, id string) (timeline.History, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return timeline.History{}, fmt.Errorf("reading session: %w", err)
	}

	history := timeline.History{}
	if err := json.Unmarshal(data, &history); err != nil {
		return timeline.History{}, fmt.Errorf("decoding session: %w", err)
	}
	return history, nil
}

// List returns the ids of every stored session.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, name[:len(name)-len(".json")])
	}
	return ids, nil
}
