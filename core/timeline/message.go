package timeline

import "fmt"

type MessageEvent struct {
	Base
	Character string
	Dialogue  string
	// ActionDescription captures the physical framing of the line,
	// e.g. "leans against the bar". Defaults to "speaks".
	ActionDescription string
}

func (e MessageEvent) Kind() Kind { return KindMessage }

func (e MessageEvent) String() string {
	if e.ActionDescription != "" && e.ActionDescription != "speaks" {
		return fmt.Sprintf("%s [%s]: %s", e.Character, e.ActionDescription, e.Dialogue)
	}
	return fmt.Sprintf("%s: %s", e.Character, e.Dialogue)
}

func NewMessageEvent(character, dialogue, actionDescription string, opts ...RebaseOption) MessageEvent {
	base := NewBase()
	for _, opt := range opts {
		opt(&base)
	}

	if actionDescription == "" {
		actionDescription = "speaks"
	}

	return MessageEvent{
		Base:              base,
		Character:         character,
		Dialogue:          dialogue,
		ActionDescription: actionDescription,
	}
}
