package orchestration

import (
	"context"
	"errors"
	"sync"

	"testing"

	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/core/story"
	"github.com/TitzMcgie/Metavern/core/timeline"
)

func newArc(t *testing.T, objectives ...string) *story.Story {
	t.Helper()
	arc, err := story.New(story.Definition{Title: "test arc", Objectives: objectives})
	if err != nil {
		t.Fatalf("creating story: %v", err)
	}
	return arc
}

// scriptedDecisionOracle answers each character from a fixed script,
// optionally varying by call count. Decide is called concurrently, so
// the counter is guarded.
type scriptedDecisionOracle struct {
	decide func(call int, request oracles.DecisionRequest) (*oracles.Decision, error)

	mu    sync.Mutex
	calls int
}

func (s *scriptedDecisionOracle) Decide(_ context.Context, request oracles.DecisionRequest) (*oracles.Decision, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.decide(call, request)
}

func decideByName(script map[string]oracles.Decision) *scriptedDecisionOracle {
	return &scriptedDecisionOracle{
		decide: func(_ int, request oracles.DecisionRequest) (*oracles.Decision, error) {
			decision, ok := script[request.Persona.Name]
			if !ok {
				return &oracles.Decision{Type: oracles.DecisionSilent}, nil
			}
			return &decision, nil
		},
	}
}

type scriptedNarratorOracle struct {
	transition func(request oracles.TransitionRequest) (*oracles.TransitionResult, error)
	casting    func(request oracles.CastingRequest) (*oracles.CastingResult, error)
	inject     func(request oracles.SceneRequest) (*oracles.SceneResult, error)
	summarize  func(request oracles.SummaryRequest) (string, error)

	injections int
}

func (s *scriptedNarratorOracle) Transition(_ context.Context, request oracles.TransitionRequest) (*oracles.TransitionResult, error) {
	if s.transition == nil {
		return &oracles.TransitionResult{}, nil
	}
	return s.transition(request)
}

func (s *scriptedNarratorOracle) Casting(_ context.Context, request oracles.CastingRequest) (*oracles.CastingResult, error) {
	if s.casting == nil {
		return &oracles.CastingResult{}, nil
	}
	return s.casting(request)
}

func (s *scriptedNarratorOracle) InjectScene(_ context.Context, request oracles.SceneRequest) (*oracles.SceneResult, error) {
	s.injections++
	if s.inject == nil {
		return &oracles.SceneResult{Location: "nowhere", Description: "nothing stirs"}, nil
	}
	return s.inject(request)
}

func (s *scriptedNarratorOracle) Summarize(_ context.Context, request oracles.SummaryRequest) (string, error) {
	if s.summarize == nil {
		return "", nil
	}
	return s.summarize(request)
}

type scriptedJudgeOracle struct {
	evaluate func(request oracles.JudgeRequest) (*oracles.JudgeResult, error)

	calls int
}

func (s *scriptedJudgeOracle) Evaluate(_ context.Context, request oracles.JudgeRequest) (*oracles.JudgeResult, error) {
	s.calls++
	if s.evaluate == nil {
		return &oracles.JudgeResult{StoryObjective: oracles.ObjectiveContinuing}, nil
	}
	return s.evaluate(request)
}

// fixedSource makes jitter reproducible: Float64 over it always returns
// the same value, so equal priorities stay equal.
type fixedSource struct{}

func (fixedSource) Int63() int64 { return 1 << 62 }
func (fixedSource) Seed(int64)   {}

type recordingStore struct {
	saves int
	last  timeline.History
	fail  error
}

func (s *recordingStore) Save(_ context.Context, history timeline.History) error {
	s.saves++
	s.last = history
	return s.fail
}

func (s *recordingStore) Load(_ context.Context, id string) (timeline.History, error) {
	if s.last.ID != id {
		return timeline.History{}, errors.New("unknown session id")
	}
	return s.last, nil
}
