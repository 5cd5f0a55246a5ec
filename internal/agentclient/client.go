// Package agentclient adapts the Anthropic Messages API to the narrow
// loopengine.AgentClient capability: one stateless turn in, one response
// out, no retained conversation (§4.13). It is the single place the real
// SDK type appears; everything else in the orchestrator sees only the
// SpawnFreshAgent method.
package agentclient

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client spawns fresh agent turns against the Anthropic API, each call
// wrapped by a circuit breaker (breaker.go) so a run of failures trips
// the orchestrator's backpressure rather than hammering a downed API.
type Client struct {
	api     anthropic.Client
	breaker *breaker
}

// New constructs a Client using apiKey. Pass an empty apiKey to fall back
// to the SDK's own ANTHROPIC_API_KEY environment lookup.
func New(apiKey string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Client{
		api:     anthropic.NewClient(opts...),
		breaker: newBreaker(),
	}
}

// SpawnFreshAgent implements loopengine.AgentClient: it issues exactly one
// Messages.New call with prompt as the sole user turn and returns the
// concatenated text of the response. No history is sent or retained.
func (c *Client) SpawnFreshAgent(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	result, err := c.breaker.execute(func() (string, error) {
		message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("spawn fresh agent: %w", err)
		}
		return concatText(message), nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// concatText joins every text block in the response, in order. Non-text
// blocks (tool use, thinking) are skipped: the loop engine's
// context-update and file-op parsers (C13, C15) only ever look at text.
func concatText(message *anthropic.Message) string {
	var out string
	for _, block := range message.Content {
		if text := block.AsText(); text.Text != "" {
			out += text.Text
		}
	}
	return out
}
