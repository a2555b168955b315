package timeline

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func TestSnapshotRoundTripPreservesEventsAndParticipants(t *testing.T) {
	tl := New(WithTitle("dockside"))

	for _, event := range []Event{
		NewSceneEvent("harbor", "fog over black water"),
		NewCharacterEntryEvent("Mira", "steps off the gangplank"),
		NewMessageEvent("Mira", "anyone here?", "peering into the fog"),
		NewActionEvent("Jacek", "lights a lantern"),
		NewCharacterExitEvent("Mira", "slips away between crates"),
	} {
		if err := tl.Append(event); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}
	tl.SetSummary("Mira came and went; Jacek keeps watch.")

	data, err := json.Marshal(tl.Snapshot())
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	var history History
	if err := json.Unmarshal(data, &history); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}

	restored, err := FromHistory(history)
	if err != nil {
		t.Fatalf("unexpected replay error: %v", err)
	}

	if restored.ID() != tl.ID() {
		t.Fatalf("expected id %q to survive the round trip, got %q", tl.ID(), restored.ID())
	}
	if restored.Title() != "dockside" {
		t.Fatalf("expected title to survive the round trip, got %q", restored.Title())
	}
	if restored.Summary() != tl.Summary() {
		t.Fatalf("expected summary to survive the round trip, got %q", restored.Summary())
	}
	if !slices.Equal(restored.Participants(), tl.Participants()) {
		t.Fatalf("expected participants %v, got %v", tl.Participants(), restored.Participants())
	}
	if !slices.Equal(restored.CurrentParticipants(), tl.CurrentParticipants()) {
		t.Fatalf("expected current participants %v, got %v", tl.CurrentParticipants(), restored.CurrentParticipants())
	}

	original := tl.Events()
	replayed := restored.Events()
	if len(replayed) != len(original) {
		t.Fatalf("expected %d events, got %d", len(original), len(replayed))
	}
	for i := range original {
		want, got := EncodeRecord(original[i]), EncodeRecord(replayed[i])
		if !want.Timestamp.Equal(got.Timestamp) {
			t.Fatalf("expected event %d timestamp %v, got %v", i, want.Timestamp, got.Timestamp)
		}
		want.Timestamp = got.Timestamp
		if want != got {
			t.Fatalf("expected event %d to round trip, want %#v, got %#v", i, want, got)
		}
	}
}

func TestEncodeRecordTagsByKind(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "message", event: NewMessageEvent("Mira", "hi", ""), expected: KindMessage},
		{name: "scene", event: NewSceneEvent("tavern", "warm light"), expected: KindScene},
		{name: "action", event: NewActionEvent("Jacek", "nods"), expected: KindAction},
		{name: "entry", event: NewCharacterEntryEvent("Tom", "arrives"), expected: KindCharacterEntry},
		{name: "exit", event: NewCharacterExitEvent("Tom", "leaves"), expected: KindCharacterExit},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			record := EncodeRecord(testCase.event)
			if record.Type != testCase.expected {
				t.Fatalf("expected type %q, got %q", testCase.expected, record.Type)
			}
			if record.ID != testCase.event.ID() {
				t.Fatalf("expected record to carry the event id")
			}
		})
	}
}

func TestDecodeRecordRejectsUnknownKind(t *testing.T) {
	_, err := DecodeRecord(Record{Type: Kind("weather_report")})
	if !errors.Is(err, ErrUnknownEventKind) {
		t.Fatalf("expected ErrUnknownEventKind, got %v", err)
	}
}

func TestFromHistoryRejectsIncompleteRecords(t *testing.T) {
	_, err := FromHistory(History{Events: []Record{{Type: KindMessage, Character: "Mira"}}})
	if !errors.Is(err, ErrMissingDialogue) {
		t.Fatalf("expected replay to reject the incomplete record, got %v", err)
	}
}
