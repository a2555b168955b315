package openrouter

import (
	"context"
	"fmt"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
)

func (c *Client) Transition(ctx context.Context, request oracles.TransitionRequest) (*oracles.TransitionResult, error) {
	result, err := promptJSONSchema(ctx, c, request.Prompt(), oracles.TransitionSystemPrompt, oracles.TransitionResult{}, characters.GenerationParams{})
	if err != nil {
		return nil, fmt.Errorf("deciding scene transition: %w", err)
	}
	return result, nil
}

func (c *Client) Casting(ctx context.Context, request oracles.CastingRequest) (*oracles.CastingResult, error) {
	result, err := promptJSONSchema(ctx, c, request.Prompt(), oracles.CastingSystemPrompt, oracles.CastingResult{}, characters.GenerationParams{})
	if err != nil {
		return nil, fmt.Errorf("deciding cast changes: %w", err)
	}
	return result, nil
}

func (c *Client) InjectScene(ctx context.Context, request oracles.SceneRequest) (*oracles.SceneResult, error) {
	result, err := promptJSONSchema(ctx, c, request.Prompt(), oracles.SceneSystemPrompt, oracles.SceneResult{}, characters.GenerationParams{})
	if err != nil {
		return nil, fmt.Errorf("generating scene injection: %w", err)
	}
	return result, nil
}

type summaryOutput struct {
	Summary string `json:"summary" jsonschema_description:"The updated running summary."`
}

func (c *Client) Summarize(ctx context.Context, request oracles.SummaryRequest) (string, error) {
	result, err := promptJSONSchema(ctx, c, request.Prompt(), oracles.SummarySystemPrompt, summaryOutput{}, characters.GenerationParams{})
	if err != nil {
		return "", fmt.Errorf("summarizing timeline: %w", err)
	}
	return result.Summary, nil
}
