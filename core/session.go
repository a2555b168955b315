package orchestration

import (
	"context"
	"fmt"
	"log"

	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

// OpenScene seeds a fresh session: the establishing scene plus an entry
// for each named cast member. Names not in the managed cast are
// rejected so a typo cannot create a ghost character.
func (o *Orchestrator) OpenScene(ctx context.Context, location, description string, cast ...string) error {
	ctx, span := tracer.Start(ctx, "open scene")
	defer span.End()

	if err := o.apply(ctx, timeline.NewSceneEvent(location, description)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("opening scene: %w", err)
	}

	for _, name := range cast {
		if o.character(name) == nil {
			err := fmt.Errorf("opening scene: unknown character %q", name)
			span.RecordError(err)
			return err
		}
		if err := o.apply(ctx, timeline.NewCharacterEntryEvent(name, "is here as the scene opens")); err != nil {
			span.RecordError(err)
			return fmt.Errorf("opening scene: %w", err)
		}
	}

	return nil
}

// Resume replaces the orchestrator's timeline with a stored session and
// rebuilds every managed character's memory by replaying the events
// they were present for. A character remembers nothing from before
// their entry or between an exit and a re-entry.
func (o *Orchestrator) Resume(ctx context.Context, id string) error {
	if o.store == nil {
		return fmt.Errorf("resuming session: no store configured")
	}

	ctx, span := tracer.Start(ctx, "resume session")
	defer span.End()

	history, err := o.store.Load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("resuming session: %w", err)
	}

	restored, err := timeline.FromHistory(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("resuming session: %w", err)
	}

	o.timeline = restored
	o.lastActor = ""
	o.stall.recordActivity()
	o.rebuildMemories()

	log.Println("Resumed session", id, "with", restored.Len(), "events")
	return nil
}

// rebuildMemories replays the timeline through each managed character's
// presence window.
func (o *Orchestrator) rebuildMemories() {
	present := map[string]bool{}

	observe := func(event timeline.Event) {
		for name := range present {
			if !present[name] {
				continue
			}
			if character := o.character(name); character != nil {
				character.Observe(event)
			}
		}
	}

	for _, event := range o.timeline.Events() {
		switch e := event.(type) {
		case timeline.CharacterEntryEvent:
			present[e.Character] = true
			observe(event)
		case timeline.CharacterExitEvent:
			// The leaver witnesses their own departure.
			observe(event)
			present[e.Character] = false
		case timeline.MessageEvent:
			present[e.Character] = true
			observe(event)
		case timeline.ActionEvent:
			present[e.Character] = true
			observe(event)
		default:
			observe(event)
		}
	}
}

// SummarizeTimeline asks the narrator to fold recent events into the
// running summary and stores the result on the timeline.
func (o *Orchestrator) SummarizeTimeline(ctx context.Context) error {
	if o.narratorOracle == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "summarize timeline")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, o.config.OracleTimeout)
	defer cancel()

	summary, err := o.narratorOracle.Summarize(callCtx, oracles.SummaryRequest{
		Events:          o.timeline.Recent(o.config.RecentWindow),
		PreviousSummary: o.timeline.Summary(),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("summarizing timeline: %w", err)
	}

	o.timeline.SetSummary(summary)
	o.persist(ctx)
	return nil
}
