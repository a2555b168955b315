package orchestration

import (
	"math/rand"
	"time"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/story"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

// Config bounds the orchestrator's pacing. Zero fields fall back to the
// defaults below.
type Config struct {
	// MaxConsecutiveTurns caps how many rounds run in one sequence
	// without player input.
	MaxConsecutiveTurns int
	// PriorityJitter is the half-width of the uniform noise added to
	// decision priorities before selection.
	PriorityJitter float64
	// StallThreshold is how many consecutive unresolved rounds trigger
	// a scene injection.
	StallThreshold int
	// SceneMemory is how many injected scene descriptions are kept as
	// negative examples for the next injection.
	SceneMemory int
	// OracleTimeout bounds each individual oracle call.
	OracleTimeout time.Duration
	// RecentWindow is how many events oracle prompts see.
	RecentWindow int
}

const (
	defaultMaxConsecutiveTurns = 3
	defaultPriorityJitter      = 0.1
	defaultStallThreshold      = 2
	defaultSceneMemory         = 5
	defaultOracleTimeout       = 20 * time.Second
	defaultRecentWindow        = 100
)

func defaultConfig() Config {
	return Config{
		MaxConsecutiveTurns: defaultMaxConsecutiveTurns,
		PriorityJitter:      defaultPriorityJitter,
		StallThreshold:      defaultStallThreshold,
		SceneMemory:         defaultSceneMemory,
		OracleTimeout:       defaultOracleTimeout,
		RecentWindow:        defaultRecentWindow,
	}
}

func (c Config) withDefaults() Config {
	defaults := defaultConfig()
	if c.MaxConsecutiveTurns <= 0 {
		c.MaxConsecutiveTurns = defaults.MaxConsecutiveTurns
	}
	if c.PriorityJitter < 0 {
		c.PriorityJitter = defaults.PriorityJitter
	}
	if c.StallThreshold <= 0 {
		c.StallThreshold = defaults.StallThreshold
	}
	if c.SceneMemory <= 0 {
		c.SceneMemory = defaults.SceneMemory
	}
	if c.OracleTimeout <= 0 {
		c.OracleTimeout = defaults.OracleTimeout
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = defaults.RecentWindow
	}
	return c
}

type OrchestratorOption func(*Orchestrator)

// WithConfig replaces the pacing configuration. A nil config is a noop.
// Note that a zero PriorityJitter is honored, which makes selection
// deterministic; use a negative value to ask for the default.
func WithConfig(config *Config) OrchestratorOption {
	return func(o *Orchestrator) {
		if config == nil {
			return
		}
		o.config = config.withDefaults()
	}
}

func WithDecisionOracle(oracle oracles.DecisionOracle) OrchestratorOption {
	return func(o *Orchestrator) { o.decisionOracle = oracle }
}

func WithNarratorOracle(oracle oracles.NarratorOracle) OrchestratorOption {
	return func(o *Orchestrator) { o.narratorOracle = oracle }
}

func WithJudgeOracle(oracle oracles.JudgeOracle) OrchestratorOption {
	return func(o *Orchestrator) { o.judgeOracle = oracle }
}

func WithStore(store Store) OrchestratorOption {
	return func(o *Orchestrator) { o.store = store }
}

func WithCharacters(cast ...*characters.Character) OrchestratorOption {
	return func(o *Orchestrator) { o.cast = append(o.cast, cast...) }
}

func WithStory(s *story.Story) OrchestratorOption {
	return func(o *Orchestrator) { o.story = s }
}

func WithPlayerName(name string) OrchestratorOption {
	return func(o *Orchestrator) { o.playerName = name }
}

// WithTimeline resumes on an existing timeline instead of starting a
// fresh one, used when loading a saved session.
func WithTimeline(t *timeline.Timeline) OrchestratorOption {
	return func(o *Orchestrator) { o.timeline = t }
}

// WithEventCallback registers a callback invoked once, in order, for
// every event the orchestrator applies.
func WithEventCallback(callback func(timeline.Event)) OrchestratorOption {
	return func(o *Orchestrator) { o.onEvent = callback }
}

// WithRandSource pins the jitter source, used by tests to make winner
// selection reproducible.
func WithRandSource(source rand.Source) OrchestratorOption {
	return func(o *Orchestrator) { o.rand = rand.New(source) }
}

func WithEnvironment(environment oracles.Environment) OrchestratorOption {
	return func(o *Orchestrator) { o.stall.environment = environment }
}
