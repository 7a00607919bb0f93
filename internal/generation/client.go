// Package generation drives an external language model to produce candidate
// trivia rounds. One call to Generator.Generate yields at most one validated
// round; persistence is the caller's responsibility.
package generation

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the narrow slice of the OpenAI-compatible API the
// generator needs. *openai.Client satisfies it; tests substitute a fake.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient builds an OpenAI-compatible chat client. baseURL may point at an
// OpenRouter-style gateway; when empty the library default endpoint is used.
func NewClient(apiKey, baseURL string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("generation: API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg), nil
}
