package timeline

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMessage        Kind = "message"
	KindScene          Kind = "scene"
	KindAction         Kind = "action"
	KindCharacterEntry Kind = "character_entry"
	KindCharacterExit  Kind = "character_exit"
)

type Event interface {
	Kind() Kind
	ID() string
	Timestamp() time.Time
}

type Base struct {
	id        string
	timestamp time.Time
}

func NewBase() Base {
	return Base{id: uuid.NewString(), timestamp: time.Now()}
}

func (b Base) ID() string {
	return b.id
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

type RebaseOption func(*Base)

// WithBase replaces the generated envelope, used when decoding stored
// records so ids and timestamps survive a round-trip.
func WithBase(base Base) RebaseOption {
	return func(o *Base) {
		*o = base
	}
}

func RestoredBase(id string, timestamp time.Time) Base {
	return Base{id: id, timestamp: timestamp}
}
