// Package orchestration runs multi-character narrative sessions: it
// collects decisions from character oracles each round, arbitrates who
// acts, keeps the story moving when conversation stalls, and tracks
// objective progress across the cast.
package orchestration

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/story"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

// Store persists timeline snapshots between rounds.
type Store interface {
	Save(ctx context.Context, history timeline.History) error
	Load(ctx context.Context, id string) (timeline.History, error)
}

type Orchestrator struct {
	timeline *timeline.Timeline
	cast     []*characters.Character
	story    *story.Story

	decisionOracle oracles.DecisionOracle
	narratorOracle oracles.NarratorOracle
	judgeOracle    oracles.JudgeOracle

	store      Store
	config     Config
	playerName string
	onEvent    func(timeline.Event)
	rand       *rand.Rand

	stall stallDetector

	// lastActor is the winner of the most recent resolved round; the
	// same character cannot win two rounds back to back.
	lastActor string
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		timeline: timeline.New(),
		config:   defaultConfig(),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.stall.threshold = o.config.StallThreshold
	o.stall.memory = o.config.SceneMemory
	return o
}

func (o *Orchestrator) Timeline() *timeline.Timeline {
	return o.timeline
}

func (o *Orchestrator) Story() *story.Story {
	return o.story
}

func (o *Orchestrator) Cast() []*characters.Character {
	return append([]*characters.Character(nil), o.cast...)
}

func (o *Orchestrator) character(name string) *characters.Character {
	for _, character := range o.cast {
		if character.Name() == name {
			return character
		}
	}
	return nil
}

// presentCast returns the managed characters currently on scene.
func (o *Orchestrator) presentCast() []*characters.Character {
	present := []*characters.Character{}
	for _, character := range o.cast {
		if o.timeline.IsPresent(character.Name()) {
			present = append(present, character)
		}
	}
	return present
}

// absentCastNames returns managed characters not on scene, candidates
// for a casting entry.
func (o *Orchestrator) absentCastNames() []string {
	absent := []string{}
	for _, character := range o.cast {
		if !o.timeline.IsPresent(character.Name()) {
			absent = append(absent, character.Name())
		}
	}
	return absent
}

func (o *Orchestrator) storyContext() string {
	if o.story == nil {
		return ""
	}
	return o.story.Context()
}

func (o *Orchestrator) currentLocation() string {
	location, _ := o.timeline.CurrentLocation()
	return location
}

// apply appends the event, broadcasts it exactly once to every managed
// character on scene, notifies the event callback, and persists the
// timeline. It is only ever called from the orchestrating goroutine.
func (o *Orchestrator) apply(ctx context.Context, event timeline.Event) error {
	// Exits are witnessed by the leaver too, so capture the audience
	// before presence changes.
	audience := o.presentCast()

	if err := o.timeline.Append(event); err != nil {
		return err
	}

	if _, ok := event.(timeline.CharacterEntryEvent); ok {
		audience = o.presentCast()
	}

	for _, character := range audience {
		character.Observe(event)
	}

	if o.onEvent != nil {
		o.onEvent(event)
	}

	o.persist(ctx)
	return nil
}

func (o *Orchestrator) persist(ctx context.Context) {
	if o.store == nil {
		return
	}
	if err := o.store.Save(ctx, o.timeline.Snapshot()); err != nil {
		log.Println("Warning: failed to persist timeline:", err)
		logger.WarnContext(ctx, "timeline persistence failed", "error", err)
	}
}

// SubmitPlayerMessage records a line from the player. A trailing
// bracketed fragment becomes the action framing, so "hello [waves]"
// speaks "hello" while waving. The player's turn resets the stall
// counter and the consecutive-winner guard.
func (o *Orchestrator) SubmitPlayerMessage(ctx context.Context, raw string) (timeline.Event, error) {
	ctx, span := tracer.Start(ctx, "submit player message")
	defer span.End()

	dialogue, action := ExtractBracketedAction(raw)
	event := timeline.NewMessageEvent(o.playerName, dialogue, action)
	if err := o.apply(ctx, event); err != nil {
		span.RecordError(err)
		return nil, err
	}

	o.lastActor = o.playerName
	o.stall.recordActivity()
	return event, nil
}
