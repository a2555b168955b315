package openrouter

import (
	"context"
	"fmt"

	"github.com/TitzMcgie/Metavern/core/oracles"
)

func (c *Client) Decide(ctx context.Context, request oracles.DecisionRequest) (*oracles.Decision, error) {
	decision, err := promptJSONSchema(ctx, c, request.Prompt(), oracles.DecideSystemPrompt, oracles.Decision{}, request.Params)
	if err != nil {
		return nil, fmt.Errorf("deciding for %s: %w", request.Persona.Name, err)
	}
	return decision, nil
}
