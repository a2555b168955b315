package timeline

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrMissingCharacter = errors.New("event is missing a character name")
	ErrMissingDialogue  = errors.New("message event is missing dialogue")
	ErrMissingLocation  = errors.New("scene event is missing a location")
	ErrMissingDetail    = errors.New("scene event is missing a description")
	ErrMissingAction    = errors.New("action event is missing a description")
	ErrUnknownEventKind = errors.New("unknown event kind")
)

// Timeline is the append-only record of everything that happened in a
// session, together with who has ever appeared and who is on scene right
// now. All writes go through Append; reads return copies so callers can
// never alias internal state.
type Timeline struct {
	mu sync.RWMutex

	id    string
	title string

	events              []Event
	participants        []string
	currentParticipants []string

	summary       string
	visibleToUser bool
}

type TimelineOption func(*Timeline)

func WithID(id string) TimelineOption {
	return func(t *Timeline) { t.id = id }
}

func WithTitle(title string) TimelineOption {
	return func(t *Timeline) { t.title = title }
}

func WithSummary(summary string) TimelineOption {
	return func(t *Timeline) { t.summary = summary }
}

func WithHiddenFromUser() TimelineOption {
	return func(t *Timeline) { t.visibleToUser = false }
}

func New(opts ...TimelineOption) *Timeline {
	t := &Timeline{
		id:            uuid.NewString(),
		visibleToUser: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append validates the event and records it, updating the participant
// sets for the kinds that imply presence. Validation failures leave the
// timeline untouched.
func (t *Timeline) Append(event Event) error {
	if err := validate(event); err != nil {
		return fmt.Errorf("rejecting event: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = append(t.events, event)

	switch e := event.(type) {
	case MessageEvent:
		t.markPresent(e.Character)
	case ActionEvent:
		t.markPresent(e.Character)
	case CharacterEntryEvent:
		t.markPresent(e.Character)
	case CharacterExitEvent:
		if i := slices.Index(t.currentParticipants, e.Character); i >= 0 {
			t.currentParticipants = slices.Delete(t.currentParticipants, i, i+1)
		}
	}

	return nil
}

func (t *Timeline) markPresent(name string) {
	if !slices.Contains(t.participants, name) {
		t.participants = append(t.participants, name)
	}
	if !slices.Contains(t.currentParticipants, name) {
		t.currentParticipants = append(t.currentParticipants, name)
	}
}

func validate(event Event) error {
	switch e := event.(type) {
	case MessageEvent:
		if e.Character == "" {
			return ErrMissingCharacter
		}
		if e.Dialogue == "" {
			return ErrMissingDialogue
		}
	case SceneEvent:
		if e.Location == "" {
			return ErrMissingLocation
		}
		if e.Description == "" {
			return ErrMissingDetail
		}
	case ActionEvent:
		if e.Character == "" {
			return ErrMissingCharacter
		}
		if e.Description == "" {
			return ErrMissingAction
		}
	case CharacterEntryEvent:
		if e.Character == "" {
			return ErrMissingCharacter
		}
	case CharacterExitEvent:
		if e.Character == "" {
			return ErrMissingCharacter
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEventKind, event)
	}
	return nil
}

func (t *Timeline) ID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

func (t *Timeline) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

func (t *Timeline) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = title
}

func (t *Timeline) Summary() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.summary
}

func (t *Timeline) SetSummary(summary string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary = summary
}

func (t *Timeline) VisibleToUser() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.visibleToUser
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// Events returns a copy of the full ordered event log.
func (t *Timeline) Events() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.events)
}

// Recent returns up to n most recent events in chronological order. When
// kinds are given only events of those kinds are considered.
func (t *Timeline) Recent(n int, kinds ...Kind) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	matches := func(e Event) bool {
		if len(kinds) == 0 {
			return true
		}
		return slices.Contains(kinds, e.Kind())
	}

	recent := []Event{}
	for i := len(t.events) - 1; i >= 0 && len(recent) < n; i-- {
		if matches(t.events[i]) {
			recent = append(recent, t.events[i])
		}
	}
	slices.Reverse(recent)
	return recent
}

// CurrentLocation reports the location of the most recent scene event,
// if any scene has been set.
func (t *Timeline) CurrentLocation() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := len(t.events) - 1; i >= 0; i-- {
		if scene, ok := t.events[i].(SceneEvent); ok {
			return scene.Location, true
		}
	}
	return "", false
}

func (t *Timeline) Participants() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.participants)
}

func (t *Timeline) CurrentParticipants() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.currentParticipants)
}

func (t *Timeline) IsPresent(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Contains(t.currentParticipants, name)
}
