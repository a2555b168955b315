package oracles

import (
	"errors"
	"fmt"
)

type DecisionType string

const (
	DecisionSpeak  DecisionType = "speak"
	DecisionAct    DecisionType = "act"
	DecisionSilent DecisionType = "silent"
)

var (
	ErrUnknownDecisionType = errors.New("unknown decision type")
	ErrMissingDialogue     = errors.New("speak decision carries no dialogue")
	ErrMissingAction       = errors.New("act decision carries no action")
	ErrPriorityOutOfRange  = errors.New("priority outside [0, 1]")
)

// Decision is one character's verdict for the current round: what they
// would do, how urgently, and why.
type Decision struct {
	Type      DecisionType `json:"decision" jsonschema:"enum=speak,enum=act,enum=silent" jsonschema_description:"Whether the character speaks, acts, or stays silent this round."`
	Dialogue  string       `json:"dialogue,omitempty" jsonschema_description:"The spoken line, required when the decision is speak."`
	Action    string       `json:"action,omitempty" jsonschema_description:"The physical act, required when the decision is act. For speak it may frame the line."`
	Priority  float64      `json:"priority" jsonschema:"minimum=0,maximum=1" jsonschema_description:"How urgently the character wants this turn, 0 to 1."`
	Reasoning string       `json:"reasoning,omitempty" jsonschema_description:"Short in-character justification."`
}

// Validate checks the structural rules a decision must satisfy before it
// can compete for the round.
func (d Decision) Validate() error {
	switch d.Type {
	case DecisionSpeak:
		if d.Dialogue == "" {
			return ErrMissingDialogue
		}
	case DecisionAct:
		if d.Action == "" {
			return ErrMissingAction
		}
	case DecisionSilent:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDecisionType, d.Type)
	}

	if d.Priority < 0 || d.Priority > 1 {
		return fmt.Errorf("%w: %v", ErrPriorityOutOfRange, d.Priority)
	}

	return nil
}
