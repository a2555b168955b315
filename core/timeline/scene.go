package timeline

import "fmt"

type SceneEvent struct {
	Base
	Location    string
	Description string
}

func (e SceneEvent) Kind() Kind { return KindScene }

func (e SceneEvent) String() string {
	return fmt.Sprintf("[%s] %s", e.Location, e.Description)
}

func NewSceneEvent(location, description string, opts ...RebaseOption) SceneEvent {
	base := NewBase()
	for _, opt := range opts {
		opt(&base)
	}

	return SceneEvent{Base: base, Location: location, Description: description}
}
