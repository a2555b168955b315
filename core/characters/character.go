package characters

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/TitzMcgie/Metavern/core/timeline"
)

var ErrMissingName = errors.New("persona has no name")

// Character binds a persona to its private perception of the story: an
// append-only memory of witnessed events and the mutable state the
// objective evaluator writes into.
type Character struct {
	persona Persona
	params  GenerationParams

	mu               sync.RWMutex
	memory           []timeline.Event
	currentObjective string
}

// New deep-copies the persona so later caller mutations cannot leak into
// a live character, and resolves the sampling knobs once up front.
func New(persona Persona) (*Character, error) {
	if persona.Name == "" {
		return nil, ErrMissingName
	}

	owned := Persona{}
	if err := copier.CopyWithOption(&owned, &persona, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copying persona: %w", err)
	}

	return &Character{
		persona: owned,
		params:  owned.InferGenerationParams(),
	}, nil
}

func (c *Character) Name() string {
	return c.persona.Name
}

// Persona returns a deep copy; the character's own persona is immutable
// after construction.
func (c *Character) Persona() Persona {
	snapshot := Persona{}
	copier.CopyWithOption(&snapshot, &c.persona, copier.Option{DeepCopy: true})
	return snapshot
}

func (c *Character) GenerationParams() GenerationParams {
	return c.params
}

// Observe appends an event to the character's memory. Memory is
// append-only; there is no forgetting path.
func (c *Character) Observe(event timeline.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory = append(c.memory, event)
}

func (c *Character) Memory() []timeline.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.memory)
}

// RecentMemory returns up to n most recently witnessed events in
// chronological order.
func (c *Character) RecentMemory(n int) []timeline.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || len(c.memory) == 0 {
		return nil
	}
	if n > len(c.memory) {
		n = len(c.memory)
	}
	return slices.Clone(c.memory[len(c.memory)-n:])
}

func (c *Character) CurrentObjective() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentObjective
}

func (c *Character) SetObjective(objective string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentObjective = objective
}

func (c *Character) ClearObjective() {
	c.SetObjective("")
}
