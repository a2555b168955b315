package orchestration

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"

	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

// stallDetector watches for unresolved rounds. It is either active
// (count zero) or stalling with a count of consecutive unresolved
// rounds; reaching the threshold asks for a scene injection, and the
// counter resets once an injection lands. The detector also owns the
// narrator-facing environment state so it is passed into oracle calls
// explicitly instead of living in a global.
type stallDetector struct {
	count     int
	threshold int

	// injected keeps the last few injected descriptions as negative
	// examples so consecutive injections do not repeat a beat.
	injected []string
	memory   int

	environment oracles.Environment
}

func (d *stallDetector) recordActivity() {
	d.count = 0
}

// recordUnresolved bumps the stall counter and reports whether the
// threshold is met. The counter keeps its value until an injection
// lands, so a failed injection retries on the next unresolved round.
func (d *stallDetector) recordUnresolved() bool {
	d.count++
	return d.count >= d.threshold
}

func (d *stallDetector) remember(description string) {
	d.injected = append(d.injected, description)
	if d.memory > 0 && len(d.injected) > d.memory {
		d.injected = d.injected[len(d.injected)-d.memory:]
	}
}

// advanceTime ticks the environment clock after every injection, giving
// consecutive beats a reason to differ.
func (d *stallDetector) advanceTime() {
	phases := []string{"morning", "midday", "afternoon", "evening", "night"}
	for i, phase := range phases {
		if d.environment.TimeOfDay == phase {
			d.environment.TimeOfDay = phases[(i+1)%len(phases)]
			return
		}
	}
	d.environment.TimeOfDay = phases[0]
}

// injectScene asks the narrator for a fresh development and applies it.
// Injection failures are logged and skipped; the stall counter keeps
// its count, so the next unresolved round retries the injection.
func (o *Orchestrator) injectScene(ctx context.Context) timeline.Event {
	if o.narratorOracle == nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "inject scene")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, o.config.OracleTimeout)
	defer cancel()

	location := o.currentLocation()
	result, err := o.narratorOracle.InjectScene(callCtx, oracles.SceneRequest{
		Location:          location,
		Recent:            o.timeline.Recent(o.config.RecentWindow),
		AvoidDescriptions: append([]string(nil), o.stall.injected...),
		Environment:       o.stall.environment,
		StoryContext:      o.storyContext(),
	})
	if err != nil {
		span.RecordError(err)
		log.Println("Warning: scene injection failed:", err)
		return nil
	}

	if result.Location == "" {
		result.Location = location
	}
	if result.Location == "" {
		result.Location = "somewhere unnamed"
	}

	event := timeline.NewSceneEvent(result.Location, result.Description)
	if err := o.apply(ctx, event); err != nil {
		span.RecordError(err)
		log.Println("Warning: dropping invalid injected scene:", err)
		return nil
	}

	o.stall.recordActivity()
	o.stall.remember(result.Description)
	o.stall.advanceTime()
	// A scene beat is an impulse, not a turn; whoever spoke last can
	// react to it.
	o.lastActor = ""

	span.SetAttributes(attribute.String("scene.location", event.Location))
	return event
}
