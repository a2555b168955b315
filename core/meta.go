package orchestration

import (
	"context"
	"log"
	"slices"

	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

// resolveMetaNarrative runs the pre-round housekeeping: first a single
// scene-transition decision, then one batched casting decision covering
// every managed character. Failures skip the step; the meta narrative
// is advisory and never blocks rounds.
func (o *Orchestrator) resolveMetaNarrative(ctx context.Context) []timeline.Event {
	if o.narratorOracle == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "resolve meta narrative")
	defer span.End()

	applied := []timeline.Event{}

	if event := o.resolveTransition(ctx); event != nil {
		applied = append(applied, event)
	}
	applied = append(applied, o.resolveCasting(ctx)...)

	return applied
}

func (o *Orchestrator) resolveTransition(ctx context.Context) timeline.Event {
	callCtx, cancel := context.WithTimeout(ctx, o.config.OracleTimeout)
	defer cancel()

	result, err := o.narratorOracle.Transition(callCtx, oracles.TransitionRequest{
		Location:     o.currentLocation(),
		Recent:       o.timeline.Recent(o.config.RecentWindow),
		StoryContext: o.storyContext(),
		Participants: o.timeline.CurrentParticipants(),
	})
	if err != nil {
		log.Println("Warning: transition decision failed:", err)
		return nil
	}
	if !result.ShouldTransition {
		return nil
	}

	event := timeline.NewSceneEvent(result.Location, result.Description)
	if err := o.apply(ctx, event); err != nil {
		log.Println("Warning: dropping invalid transition scene:", err)
		return nil
	}
	return event
}

// resolveCasting applies the batched entry/exit verdict. An entering
// character's memory is seeded with their entry event alone; they know
// nothing they did not witness. An exiting character leaves the current
// participants but keeps everything they remember for a later return.
func (o *Orchestrator) resolveCasting(ctx context.Context) []timeline.Event {
	callCtx, cancel := context.WithTimeout(ctx, o.config.OracleTimeout)
	defer cancel()

	result, err := o.narratorOracle.Casting(callCtx, oracles.CastingRequest{
		Present:      o.timeline.CurrentParticipants(),
		Absent:       o.absentCastNames(),
		Recent:       o.timeline.Recent(o.config.RecentWindow),
		Location:     o.currentLocation(),
		StoryContext: o.storyContext(),
	})
	if err != nil {
		log.Println("Warning: casting decision failed:", err)
		return nil
	}

	applied := []timeline.Event{}

	for _, entry := range result.Entries {
		character := o.character(entry.Character)
		if character == nil {
			logger.WarnContext(ctx, "casting named an unknown character", "character", entry.Character)
			continue
		}
		if o.timeline.IsPresent(entry.Character) {
			continue
		}

		event := timeline.NewCharacterEntryEvent(entry.Character, entry.Circumstances)
		if err := o.apply(ctx, event); err != nil {
			log.Println("Warning: dropping invalid entry event:", err)
			continue
		}
		applied = append(applied, event)
	}

	for _, exit := range result.Exits {
		if o.character(exit.Character) == nil {
			logger.WarnContext(ctx, "casting named an unknown character", "character", exit.Character)
			continue
		}
		if !slices.Contains(o.timeline.CurrentParticipants(), exit.Character) {
			continue
		}

		event := timeline.NewCharacterExitEvent(exit.Character, exit.Circumstances)
		if err := o.apply(ctx, event); err != nil {
			log.Println("Warning: dropping invalid exit event:", err)
			continue
		}
		applied = append(applied, event)
	}

	return applied
}
