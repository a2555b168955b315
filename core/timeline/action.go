package timeline

import "fmt"

type ActionEvent struct {
	Base
	Character   string
	Description string
}

func (e ActionEvent) Kind() Kind { return KindAction }

func (e ActionEvent) String() string {
	return fmt.Sprintf("%s %s", e.Character, e.Description)
}

func NewActionEvent(character, description string, opts ...RebaseOption) ActionEvent {
	base := NewBase()
	for _, opt := range opts {
		opt(&base)
	}

	return ActionEvent{Base: base, Character: character, Description: description}
}
