package timeline

import (
	"errors"
	"slices"
	"testing"
)

func TestAppendTracksParticipants(t *testing.T) {
	tl := New()

	if err := tl.Append(NewMessageEvent("Mira", "Hello there.", "")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	if err := tl.Append(NewActionEvent("Jacek", "pours a drink")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	if err := tl.Append(NewCharacterEntryEvent("Old Tom", "shuffles in from the rain")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	want := []string{"Mira", "Jacek", "Old Tom"}
	if got := tl.Participants(); !slices.Equal(got, want) {
		t.Fatalf("expected participants %v, got %v", want, got)
	}
	if got := tl.CurrentParticipants(); !slices.Equal(got, want) {
		t.Fatalf("expected current participants %v, got %v", want, got)
	}
}

func TestExitRemovesOnlyFromCurrentParticipants(t *testing.T) {
	tl := New()

	if err := tl.Append(NewCharacterEntryEvent("Mira", "walks in")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	if err := tl.Append(NewCharacterExitEvent("Mira", "storms out")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	if got := tl.Participants(); !slices.Equal(got, []string{"Mira"}) {
		t.Fatalf("expected Mira to stay in participants, got %v", got)
	}
	if got := tl.CurrentParticipants(); len(got) != 0 {
		t.Fatalf("expected no current participants, got %v", got)
	}
	if tl.IsPresent("Mira") {
		t.Fatalf("expected Mira to be absent after exit")
	}
}

func TestReentryAddsNoDuplicateParticipant(t *testing.T) {
	tl := New()

	for _, event := range []Event{
		NewCharacterEntryEvent("Mira", "walks in"),
		NewCharacterExitEvent("Mira", "steps out"),
		NewCharacterEntryEvent("Mira", "returns"),
	} {
		if err := tl.Append(event); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}

	if got := tl.Participants(); !slices.Equal(got, []string{"Mira"}) {
		t.Fatalf("expected a single participant entry, got %v", got)
	}
	if got := tl.CurrentParticipants(); !slices.Equal(got, []string{"Mira"}) {
		t.Fatalf("expected Mira back on scene, got %v", got)
	}
}

func TestAppendRejectsIncompleteEvents(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected error
	}{
		{name: "message without character", event: NewMessageEvent("", "hi", ""), expected: ErrMissingCharacter},
		{name: "message without dialogue", event: NewMessageEvent("Mira", "", ""), expected: ErrMissingDialogue},
		{name: "scene without location", event: NewSceneEvent("", "a storm rolls in"), expected: ErrMissingLocation},
		{name: "scene without description", event: NewSceneEvent("tavern", ""), expected: ErrMissingDetail},
		{name: "action without character", event: NewActionEvent("", "waves"), expected: ErrMissingCharacter},
		{name: "action without description", event: NewActionEvent("Mira", ""), expected: ErrMissingAction},
		{name: "entry without character", event: NewCharacterEntryEvent("", "arrives"), expected: ErrMissingCharacter},
		{name: "exit without character", event: NewCharacterExitEvent("", "leaves"), expected: ErrMissingCharacter},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			tl := New()
			err := tl.Append(testCase.event)
			if !errors.Is(err, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, err)
			}
			if tl.Len() != 0 {
				t.Fatalf("expected rejected event to leave timeline empty, got %d events", tl.Len())
			}
		})
	}
}

func TestRecentFiltersByKindAndPreservesOrder(t *testing.T) {
	tl := New()

	for _, event := range []Event{
		NewSceneEvent("tavern", "a crowded common room"),
		NewMessageEvent("Mira", "first", ""),
		NewActionEvent("Jacek", "wipes the counter"),
		NewMessageEvent("Mira", "second", ""),
		NewMessageEvent("Jacek", "third", ""),
	} {
		if err := tl.Append(event); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}

	recent := tl.Recent(2, KindMessage)
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}
	if got := recent[0].(MessageEvent).Dialogue; got != "second" {
		t.Fatalf("expected oldest returned message to be %q, got %q", "second", got)
	}
	if got := recent[1].(MessageEvent).Dialogue; got != "third" {
		t.Fatalf("expected newest returned message to be %q, got %q", "third", got)
	}

	if got := tl.Recent(10); len(got) != 5 {
		t.Fatalf("expected all 5 events with a large window, got %d", len(got))
	}
	if got := tl.Recent(0); got != nil {
		t.Fatalf("expected nil for a zero window, got %v", got)
	}
}

func TestCurrentLocationFollowsLatestScene(t *testing.T) {
	tl := New()

	if _, ok := tl.CurrentLocation(); ok {
		t.Fatalf("expected no location before any scene event")
	}

	if err := tl.Append(NewSceneEvent("tavern", "smoke and lamplight")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	if err := tl.Append(NewMessageEvent("Mira", "we should move", "")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	if err := tl.Append(NewSceneEvent("harbor", "fog over black water")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	location, ok := tl.CurrentLocation()
	if !ok {
		t.Fatalf("expected a location after scene events")
	}
	if location != "harbor" {
		t.Fatalf("expected location %q, got %q", "harbor", location)
	}
}

func TestEventsReturnsCopy(t *testing.T) {
	tl := New()
	if err := tl.Append(NewMessageEvent("Mira", "hello", "")); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	events := tl.Events()
	events[0] = nil

	if got := tl.Events(); got[0] == nil {
		t.Fatalf("expected internal event log to be isolated from returned slice")
	}
}
