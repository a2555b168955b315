package oracles

import (
	"errors"
	"testing"
)

func TestDecisionValidate(t *testing.T) {
	testCases := []struct {
		name     string
		decision Decision
		expected error
	}{
		{name: "valid speak", decision: Decision{Type: DecisionSpeak, Dialogue: "hello", Priority: 0.5}},
		{name: "valid act", decision: Decision{Type: DecisionAct, Action: "draws a blade", Priority: 1}},
		{name: "valid silent", decision: Decision{Type: DecisionSilent, Priority: 0}},
		{name: "speak without dialogue", decision: Decision{Type: DecisionSpeak, Priority: 0.5}, expected: ErrMissingDialogue},
		{name: "act without action", decision: Decision{Type: DecisionAct, Priority: 0.5}, expected: ErrMissingAction},
		{name: "unknown type", decision: Decision{Type: "shout", Priority: 0.5}, expected: ErrUnknownDecisionType},
		{name: "priority below range", decision: Decision{Type: DecisionSilent, Priority: -0.1}, expected: ErrPriorityOutOfRange},
		{name: "priority above range", decision: Decision{Type: DecisionSpeak, Dialogue: "hi", Priority: 1.1}, expected: ErrPriorityOutOfRange},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := testCase.decision.Validate()
			if testCase.expected == nil {
				if err != nil {
					t.Fatalf("expected valid decision, got %v", err)
				}
				return
			}
			if !errors.Is(err, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, err)
			}
		})
	}
}
