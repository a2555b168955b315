package story

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrNoObjectives = errors.New("story has no objectives")

// Story tracks a linear arc of objectives. The index only ever moves
// forward; completing the final objective moves it to the list length,
// which marks the story complete.
type Story struct {
	mu sync.RWMutex

	id          string
	title       string
	description string
	objectives  []string
	index       int
}

type Definition struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Objectives  []string `json:"objectives"`
}

func New(definition Definition) (*Story, error) {
	if len(definition.Objectives) == 0 {
		return nil, ErrNoObjectives
	}

	return &Story{
		id:          definition.ID,
		title:       definition.Title,
		description: definition.Description,
		objectives:  append([]string(nil), definition.Objectives...),
	}, nil
}

func (s *Story) Title() string {
	return s.title
}

func (s *Story) Description() string {
	return s.description
}

// CurrentObjective returns the objective being worked toward, or ""
// once the story is complete.
func (s *Story) CurrentObjective() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index >= len(s.objectives) {
		return ""
	}
	return s.objectives[s.index]
}

func (s *Story) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Advance moves to the next objective and reports whether the index
// moved. Completing the final objective moves the index to the list
// length; after that the arc is complete and Advance is a no-op.
func (s *Story) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.objectives) {
		return false
	}
	s.index++
	return true
}

// OnFinalObjective reports whether the arc is working its last beat.
func (s *Story) OnFinalObjective() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index == len(s.objectives)-1
}

// IsComplete reports whether every objective has been completed.
func (s *Story) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index >= len(s.objectives)
}

func (s *Story) Progress() (current, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total = len(s.objectives)
	current = s.index + 1
	if current > total {
		current = total
	}
	return current, total
}

// Context renders the arc for oracle prompts: the premise plus the
// current objective, without leaking future beats.
func (s *Story) Context() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := strings.Builder{}
	if s.title != "" {
		fmt.Fprintf(&b, "Story: %s\n", s.title)
	}
	if s.description != "" {
		fmt.Fprintf(&b, "%s\n", s.description)
	}
	if s.index >= len(s.objectives) {
		b.WriteString("The story has reached its conclusion; every objective is complete.")
		return b.String()
	}
	fmt.Fprintf(&b, "Current objective (%d of %d): %s", s.index+1, len(s.objectives), s.objectives[s.index])
	return b.String()
}
