package openrouter

import (
	"context"
	"fmt"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
)

func (c *Client) Evaluate(ctx context.Context, request oracles.JudgeRequest) (*oracles.JudgeResult, error) {
	result, err := promptJSONSchema(ctx, c, request.Prompt(), oracles.JudgeSystemPrompt, oracles.JudgeResult{}, characters.GenerationParams{})
	if err != nil {
		return nil, fmt.Errorf("evaluating objectives: %w", err)
	}
	return result, nil
}
