package timeline

import "fmt"

type CharacterEntryEvent struct {
	Base
	Character string
	// Circumstances describes how the character arrives on scene.
	Circumstances string
}

func (e CharacterEntryEvent) Kind() Kind { return KindCharacterEntry }

func (e CharacterEntryEvent) String() string {
	return fmt.Sprintf("%s enters: %s", e.Character, e.Circumstances)
}

func NewCharacterEntryEvent(character, circumstances string, opts ...RebaseOption) CharacterEntryEvent {
	base := NewBase()
	for _, opt := range opts {
		opt(&base)
	}

	return CharacterEntryEvent{Base: base, Character: character, Circumstances: circumstances}
}

type CharacterExitEvent struct {
	Base
	Character     string
	Circumstances string
}

func (e CharacterExitEvent) Kind() Kind { return KindCharacterExit }

func (e CharacterExitEvent) String() string {
	return fmt.Sprintf("%s leaves: %s", e.Character, e.Circumstances)
}

func NewCharacterExitEvent(character, circumstances string, opts ...RebaseOption) CharacterExitEvent {
	base := NewBase()
	for _, opt := range opts {
		opt(&base)
	}

	return CharacterExitEvent{Base: base, Character: character, Circumstances: circumstances}
}
