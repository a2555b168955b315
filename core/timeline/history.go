package timeline

import (
	"fmt"
	"slices"
	"time"
)

// Record is the stored form of a single event: a type tag, the envelope,
// and the union of kind-specific fields. Fields outside an event's kind
// stay empty and are omitted on the wire.
type Record struct {
	Type      Kind      `json:"type" bson:"type"`
	ID        string    `json:"id" bson:"id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`

	Character         string `json:"character,omitempty" bson:"character,omitempty"`
	Dialogue          string `json:"dialogue,omitempty" bson:"dialogue,omitempty"`
	ActionDescription string `json:"action_description,omitempty" bson:"action_description,omitempty"`
	Location          string `json:"location,omitempty" bson:"location,omitempty"`
	Description       string `json:"description,omitempty" bson:"description,omitempty"`
	Circumstances     string `json:"circumstances,omitempty" bson:"circumstances,omitempty"`
}

// History is the serializable snapshot of a timeline.
type History struct {
	ID                  string   `json:"id" bson:"_id"`
	Title               string   `json:"title,omitempty" bson:"title,omitempty"`
	Events              []Record `json:"events" bson:"events"`
	Participants        []string `json:"participants" bson:"participants"`
	CurrentParticipants []string `json:"current_participants" bson:"current_participants"`
	Summary             string   `json:"timeline_summary,omitempty" bson:"timeline_summary,omitempty"`
	VisibleToUser       bool     `json:"visible_to_user" bson:"visible_to_user"`
}

func EncodeRecord(event Event) Record {
	record := Record{
		Type:      event.Kind(),
		ID:        event.ID(),
		Timestamp: event.Timestamp(),
	}

	switch e := event.(type) {
	case MessageEvent:
		record.Character = e.Character
		record.Dialogue = e.Dialogue
		record.ActionDescription = e.ActionDescription
	case SceneEvent:
		record.Location = e.Location
		record.Description = e.Description
	case ActionEvent:
		record.Character = e.Character
		record.Description = e.Description
	case CharacterEntryEvent:
		record.Character = e.Character
		record.Circumstances = e.Circumstances
	case CharacterExitEvent:
		record.Character = e.Character
		record.Circumstances = e.Circumstances
	}

	return record
}

func DecodeRecord(record Record) (Event, error) {
	rebase := WithBase(RestoredBase(record.ID, record.Timestamp))

	switch record.Type {
	case KindMessage:
		return NewMessageEvent(record.Character, record.Dialogue, record.ActionDescription, rebase), nil
	case KindScene:
		return NewSceneEvent(record.Location, record.Description, rebase), nil
	case KindAction:
		return NewActionEvent(record.Character, record.Description, rebase), nil
	case KindCharacterEntry:
		return NewCharacterEntryEvent(record.Character, record.Circumstances, rebase), nil
	case KindCharacterExit:
		return NewCharacterExitEvent(record.Character, record.Circumstances, rebase), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, record.Type)
}

// Snapshot captures the timeline as a History under a single read lock.
func (t *Timeline) Snapshot() History {
	t.mu.RLock()
	defer t.mu.RUnlock()

	records := make([]Record, 0, len(t.events))
	for _, event := range t.events {
		records = append(records, EncodeRecord(event))
	}

	return History{
		ID:                  t.id,
		Title:               t.title,
		Events:              records,
		Participants:        slices.Clone(t.participants),
		CurrentParticipants: slices.Clone(t.currentParticipants),
		Summary:             t.summary,
		VisibleToUser:       t.visibleToUser,
	}
}

// FromHistory rebuilds a timeline by replaying the stored records. The
// participant sets come out of the replay itself, which keeps a restored
// timeline equivalent to the one that produced the snapshot.
func FromHistory(history History) (*Timeline, error) {
	opts := []TimelineOption{WithTitle(history.Title), WithSummary(history.Summary)}
	if history.ID != "" {
		opts = append(opts, WithID(history.ID))
	}
	t := New(opts...)
	t.visibleToUser = history.VisibleToUser

	for i, record := range history.Events {
		event, err := DecodeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", i, err)
		}
		if err := t.Append(event); err != nil {
			return nil, fmt.Errorf("replaying record %d: %w", i, err)
		}
	}

	return t, nil
}
