package data

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/repo"
)

const defaultModel = openai.GPT3Dot5Turbo

// NewOpenAIClient creates a chat completion client. An empty baseURL keeps
// the official endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}

// openAIGenerator implements the generation backend
type openAIGenerator struct {
	client *openai.Client
	model  string
}

// NewGenerator creates a generator for the given model
func NewGenerator(client *openai.Client, model string) repo.Generator {
	if model == "" {
		model = defaultModel
	}
	return &openAIGenerator{client: client, model: model}
}

// Generate sends one system and one user message and returns the first choice
func (g *openAIGenerator) Generate(ctx context.Context, req repo.Completion) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.ErrNoAnswer
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", domain.ErrNoAnswer
	}

	return content, nil
}

// Model returns the configured model name
func (g *openAIGenerator) Model() string {
	return g.model
}
