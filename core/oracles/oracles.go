package oracles

import (
	"context"
	"errors"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

// The three failure classes every oracle client must distinguish. The
// orchestrator treats them differently, so clients never fold one into
// another or coerce a failure into a silent decision.
var (
	ErrTimeout         = errors.New("oracle call timed out")
	ErrQuotaExceeded   = errors.New("oracle quota exhausted")
	ErrMalformedOutput = errors.New("oracle returned malformed output")
)

// DecisionRequest carries everything one character needs to decide their
// move for a round.
type DecisionRequest struct {
	Persona      characters.Persona
	Objective    string
	Memory       []timeline.Event
	Location     string
	Participants []string
	StoryContext string
	Params       characters.GenerationParams
}

// DecisionOracle produces one character's decision for the current
// round. Implementations live behind network clients; tests use scripted
// stand-ins.
type DecisionOracle interface {
	Decide(ctx context.Context, request DecisionRequest) (*Decision, error)
}

// TransitionRequest asks whether the narrative should move somewhere new
// before the next rounds begin.
type TransitionRequest struct {
	Location     string
	Recent       []timeline.Event
	StoryContext string
	Participants []string
}

type TransitionResult struct {
	ShouldTransition bool   `json:"should_transition" jsonschema_description:"Whether the story should move to a new location now."`
	Location         string `json:"location,omitempty" jsonschema_description:"The destination, required when transitioning."`
	Description      string `json:"description,omitempty" jsonschema_description:"How the new setting looks and feels."`
}

// CastingRequest covers every managed character in one call: who should
// enter the scene and who should leave it.
type CastingRequest struct {
	Present      []string
	Absent       []string
	Recent       []timeline.Event
	Location     string
	StoryContext string
}

type CastChange struct {
	Character     string `json:"character" jsonschema_description:"Name of the character entering or leaving."`
	Circumstances string `json:"circumstances,omitempty" jsonschema_description:"How the entrance or departure plays out."`
}

type CastingResult struct {
	Entries []CastChange `json:"entries" jsonschema_description:"Characters who should join the scene."`
	Exits   []CastChange `json:"exits" jsonschema_description:"Characters who should leave the scene."`
}

// SceneRequest asks for an unprompted scene beat to revive a stalled
// conversation. AvoidDescriptions holds recently injected beats the new
// one must not repeat.
type SceneRequest struct {
	Location          string
	Recent            []timeline.Event
	AvoidDescriptions []string
	Environment       Environment
	StoryContext      string
}

type SceneResult struct {
	Location    string `json:"location" jsonschema_description:"Where the beat happens, usually the current location."`
	Description string `json:"description" jsonschema_description:"The new development that gives characters something to react to."`
}

// Environment is the narrator-owned world state a scene request carries
// along, kept explicit rather than global.
type Environment struct {
	TimeOfDay string
	Weather   string
}

// SummaryRequest condenses a long timeline into a running synopsis.
type SummaryRequest struct {
	Events          []timeline.Event
	PreviousSummary string
}

// NarratorOracle handles the meta-narrative: transitions, cast changes,
// stall-breaking scene beats, and timeline summaries.
type NarratorOracle interface {
	Transition(ctx context.Context, request TransitionRequest) (*TransitionResult, error)
	Casting(ctx context.Context, request CastingRequest) (*CastingResult, error)
	InjectScene(ctx context.Context, request SceneRequest) (*SceneResult, error)
	Summarize(ctx context.Context, request SummaryRequest) (string, error)
}

type ObjectiveStatus string

const (
	ObjectiveAssigned   ObjectiveStatus = "assigned"
	ObjectiveCompleted  ObjectiveStatus = "completed"
	ObjectiveContinuing ObjectiveStatus = "continuing"
)

// JudgeRequest evaluates every character's progress in a single batched
// call after a round sequence.
type JudgeRequest struct {
	Characters   []CharacterProgress
	Recent       []timeline.Event
	StoryContext string
	Objective    string
}

type CharacterProgress struct {
	Name      string
	Objective string
}

type CharacterVerdict struct {
	Name      string          `json:"name" jsonschema_description:"Character the verdict applies to."`
	Objective string          `json:"objective" jsonschema_description:"The character's personal objective, new or restated."`
	Status    ObjectiveStatus `json:"status" jsonschema:"enum=assigned,enum=completed,enum=continuing" jsonschema_description:"assigned for a new objective, completed when done, continuing otherwise."`
}

type JudgeResult struct {
	Verdicts       []CharacterVerdict `json:"verdicts" jsonschema_description:"One verdict per character."`
	StoryObjective ObjectiveStatus    `json:"story_objective_status" jsonschema:"enum=completed,enum=continuing" jsonschema_description:"completed when the shared story objective has been reached."`
}

// JudgeOracle scores objective progress for the whole cast at once.
type JudgeOracle interface {
	Evaluate(ctx context.Context, request JudgeRequest) (*JudgeResult, error)
}
