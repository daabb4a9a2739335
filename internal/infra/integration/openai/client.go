package openai

import (
	"context"
	"fmt"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/xavierca1/recupa-ai/internal/agent"
)

const (
	maxTokens       = 150
	temperature     = 0.7
	presencePenalty = 0.6
)

// Client implementa agent.Generator sobre Chat Completions.
type Client struct {
	api   sdk.Client
	model string
}

func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		api:   sdk.NewClient(opts...),
		model: model,
	}
}

func (c *Client) Complete(ctx context.Context, messages []agent.Message) (string, error) {
	params := sdk.ChatCompletionNewParams{
		Model:           sdk.ChatModel(c.model),
		Messages:        toParams(messages),
		MaxTokens:       sdk.Int(maxTokens),
		Temperature:     sdk.Float(temperature),
		PresencePenalty: sdk.Float(presencePenalty),
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: resposta sem choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toParams(messages []agent.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case agent.RoleSystem:
			out = append(out, sdk.SystemMessage(m.Content))
		case agent.RoleAssistant:
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}
