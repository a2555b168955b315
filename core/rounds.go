package orchestration

import (
	"context"
	"errors"
	"log"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

// ProcessRound runs one full round sequence: the pre-round meta
// narrative, up to MaxConsecutiveTurns arbitrated rounds, and the
// post-round objective evaluation. It never fails; oracle and
// persistence problems degrade to quieter rounds. The returned slice
// holds every event applied during the sequence, in order.
func (o *Orchestrator) ProcessRound(ctx context.Context) []timeline.Event {
	ctx, span := tracer.Start(ctx, "process round sequence")
	defer span.End()

	applied := []timeline.Event{}
	applied = append(applied, o.resolveMetaNarrative(ctx)...)

	for range o.config.MaxConsecutiveTurns {
		event, resolved := o.runRound(ctx)
		if resolved {
			applied = append(applied, event)
			o.stall.recordActivity()
			continue
		}

		if o.stall.recordUnresolved() {
			if scene := o.injectScene(ctx); scene != nil {
				applied = append(applied, scene)
			}
		}
	}

	if len(applied) > 0 {
		o.evaluateObjectives(ctx)
	}

	span.SetAttributes(attribute.Int("round.applied_events", len(applied)))
	return applied
}

// candidate is one character's validated decision for a round together
// with its jittered selection score.
type candidate struct {
	character *characters.Character
	decision  oracles.Decision
	adjusted  float64
}

// runRound queries every present character concurrently, picks a winner
// and applies their event. It reports resolved=false when the round
// produces no event: everyone stayed silent, the winner just had a
// turn, or the winning event failed validation.
func (o *Orchestrator) runRound(ctx context.Context) (timeline.Event, bool) {
	ctx, span := tracer.Start(ctx, "run round")
	defer span.End()

	present := o.presentCast()
	if len(present) == 0 || o.decisionOracle == nil {
		return nil, false
	}

	decisions := o.collectDecisions(ctx, present)

	winner := o.selectWinner(decisions)
	if winner == nil {
		span.SetAttributes(attribute.String("round.outcome", "all silent"))
		return nil, false
	}

	if winner.character.Name() == o.lastActor {
		span.SetAttributes(attribute.String("round.outcome", "winner repeated"))
		return nil, false
	}

	// The winner is validated after selection; a malformed winning
	// decision leaves the round unresolved rather than promoting the
	// runner-up.
	if err := winner.decision.Validate(); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("round.outcome", "winner invalid"))
		logger.WarnContext(ctx, "winning decision failed validation",
			"character", winner.character.Name(), "error", err)
		return nil, false
	}

	event := o.eventFromDecision(winner.character.Name(), winner.decision)
	if err := o.apply(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "winning event rejected")
		log.Println("Warning: dropping invalid winning event:", err)
		return nil, false
	}

	o.lastActor = winner.character.Name()
	span.SetAttributes(
		attribute.String("round.winner", winner.character.Name()),
		attribute.String("round.decision", string(winner.decision.Type)),
	)
	return event, true
}

// collectDecisions fans one oracle call out per present character and
// waits for the whole batch. A failed call means the character abstains
// for the round. Quota exhaustion is reported once per round no matter
// how many calls hit it.
func (o *Orchestrator) collectDecisions(ctx context.Context, present []*characters.Character) []candidate {
	type outcome struct {
		character *characters.Character
		decision  *oracles.Decision
		err       error
	}

	outcomes := make([]outcome, len(present))

	wg := sync.WaitGroup{}
	for i, character := range present {
		wg.Add(1)
		go func() {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, o.config.OracleTimeout)
			defer cancel()

			decision, err := o.decisionOracle.Decide(callCtx, oracles.DecisionRequest{
				Persona:      character.Persona(),
				Objective:    character.CurrentObjective(),
				Memory:       character.RecentMemory(o.config.RecentWindow),
				Location:     o.currentLocation(),
				Participants: o.timeline.CurrentParticipants(),
				StoryContext: o.storyContext(),
				Params:       character.GenerationParams(),
			})
			outcomes[i] = outcome{character: character, decision: decision, err: err}
		}()
	}
	wg.Wait()

	quotaReported := false
	candidates := []candidate{}
	for _, result := range outcomes {
		if result.err != nil {
			if errors.Is(result.err, oracles.ErrQuotaExceeded) {
				if !quotaReported {
					quotaReported = true
					log.Println("Warning: oracle quota exhausted, characters are abstaining:", result.err)
					logger.WarnContext(ctx, "oracle quota exhausted", "error", result.err)
				}
			} else {
				logger.WarnContext(ctx, "decision failed, character abstains",
					"character", result.character.Name(), "error", result.err)
			}
			continue
		}
		if result.decision == nil {
			continue
		}

		candidates = append(candidates, candidate{
			character: result.character,
			decision:  *result.decision,
			adjusted:  result.decision.Priority + o.jitter(),
		})
	}

	return candidates
}

func (o *Orchestrator) jitter() float64 {
	if o.config.PriorityJitter == 0 {
		return 0
	}
	return (o.rand.Float64()*2 - 1) * o.config.PriorityJitter
}

// selectWinner picks the non-silent candidate with the highest jittered
// priority. Silence never wins a round.
func (o *Orchestrator) selectWinner(candidates []candidate) *candidate {
	var winner *candidate
	for i := range candidates {
		if candidates[i].decision.Type == oracles.DecisionSilent {
			continue
		}
		if winner == nil || candidates[i].adjusted > winner.adjusted {
			winner = &candidates[i]
		}
	}
	return winner
}

func (o *Orchestrator) eventFromDecision(character string, decision oracles.Decision) timeline.Event {
	switch decision.Type {
	case oracles.DecisionAct:
		return timeline.NewActionEvent(character, decision.Action)
	default:
		return timeline.NewMessageEvent(character, decision.Dialogue, decision.Action)
	}
}
