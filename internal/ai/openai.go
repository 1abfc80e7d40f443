package ai

import (
	"context"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/zheruizz/another.ai-app/internal/errors"
)

type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a client for the OpenAI chat completions API. An empty baseURL uses the public API.
func NewOpenAIClient(apiKey string, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	request := openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:       req.Model,
		Temperature: float32(req.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
	}
	if req.JSONOutput {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	completion, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			err = errors.Mark(err, ErrRateLimited)
		}
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return emptyObject, nil
	}
	return completion.Choices[0].Message.Content, nil
}
