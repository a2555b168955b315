package googleai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/TitzMcgie/Metavern/core/characters"
	"github.com/TitzMcgie/Metavern/core/oracles"
	"github.com/TitzMcgie/Metavern/internal/utils"
)

const defaultModel = "gemini-2.0-flash"

var (
	_ oracles.DecisionOracle = (*Client)(nil)
	_ oracles.NarratorOracle = (*Client)(nil)
	_ oracles.JudgeOracle    = (*Client)(nil)
)

// Client serves the oracle roles through Gemini.
type Client struct {
	client *genai.Client
	model  string
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	c := &Client{client: client, model: defaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func promptJSON[T any](
	ctx context.Context,
	c *Client,
	prompt string,
	systemPrompt string,
	output T,
	params characters.GenerationParams,
) (*T, error) {
	ctx, span := tracer.Start(ctx, "prompt oracle structured")
	defer span.End()

	span.SetAttributes(attribute.String("request.model", c.model))

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if params != (characters.GenerationParams{}) {
		config.Temperature = utils.Ptr(float32(params.Temperature))
		config.TopP = utils.Ptr(float32(params.TopP))
		config.FrequencyPenalty = utils.Ptr(float32(params.FrequencyPenalty))
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		config)
	if err != nil {
		err = classify(err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	content := resp.Text()
	split := strings.Split(content, "```")
	if len(split) > 1 {
		content = strings.TrimPrefix(split[1], "json")
	}
	if err := json.Unmarshal([]byte(content), &output); err != nil {
		err = fmt.Errorf("%w: %v", oracles.ErrMalformedOutput, err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
		return nil, err
	}

	return &output, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", oracles.ErrTimeout, err)
	}
	lowered := strings.ToLower(err.Error())
	if strings.Contains(lowered, "429") || strings.Contains(lowered, "quota") ||
		strings.Contains(lowered, "resourceexhausted") || strings.Contains(lowered, "resource exhausted") {
		return fmt.Errorf("%w: %v", oracles.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("generating content: %w", err)
}
