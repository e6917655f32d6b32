package llm

import (
	"context"
	"fmt"

	"mealweek/internal/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIClient is a client for the OpenAI chat completions API.
type openAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a new OpenAI API client.
func NewOpenAIClient(cfg *config.Config) TextGenerator {
	return &openAIClient{
		client: openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
	}
}

// GenerateContent sends a prompt to the OpenAI model and returns the generated text.
func (c *openAIClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no choices returned")
	}

	return ContentResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
			Model:            resp.Model,
		},
	}, nil
}
