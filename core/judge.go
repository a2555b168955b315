package orchestration

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"

	"github.com/TitzMcgie/Metavern/core/oracles"
)

// evaluateObjectives runs the single batched judge call that closes a
// round sequence. Verdicts update each character's personal objective;
// completing the shared story objective advances the arc and clears
// every personal objective so the judge reseeds them against the new
// beat. Once the arc is complete there is nothing left to evaluate.
func (o *Orchestrator) evaluateObjectives(ctx context.Context) {
	if o.judgeOracle == nil || len(o.cast) == 0 {
		return
	}
	if o.story != nil && o.story.IsComplete() {
		return
	}

	ctx, span := tracer.Start(ctx, "evaluate objectives")
	defer span.End()

	progress := make([]oracles.CharacterProgress, 0, len(o.cast))
	for _, character := range o.cast {
		progress = append(progress, oracles.CharacterProgress{
			Name:      character.Name(),
			Objective: character.CurrentObjective(),
		})
	}

	storyObjective := ""
	if o.story != nil {
		storyObjective = o.story.CurrentObjective()
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.OracleTimeout)
	defer cancel()

	result, err := o.judgeOracle.Evaluate(callCtx, oracles.JudgeRequest{
		Characters:   progress,
		Recent:       o.timeline.Recent(o.config.RecentWindow),
		StoryContext: o.storyContext(),
		Objective:    storyObjective,
	})
	if err != nil {
		span.RecordError(err)
		log.Println("Warning: objective evaluation failed:", err)
		return
	}

	for _, verdict := range result.Verdicts {
		character := o.character(verdict.Name)
		if character == nil {
			logger.WarnContext(ctx, "judge named an unknown character", "character", verdict.Name)
			continue
		}

		switch verdict.Status {
		case oracles.ObjectiveAssigned, oracles.ObjectiveContinuing:
			if verdict.Objective != "" {
				character.SetObjective(verdict.Objective)
			}
		case oracles.ObjectiveCompleted:
			character.ClearObjective()
		}
	}

	if result.StoryObjective == oracles.ObjectiveCompleted && o.story != nil {
		advanced := o.story.Advance()
		for _, character := range o.cast {
			character.ClearObjective()
		}
		span.SetAttributes(
			attribute.Bool("story.advanced", advanced),
			attribute.Int("story.objective_index", o.story.CurrentIndex()),
		)
	}
}
