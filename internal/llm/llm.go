// Package llm wraps the text-generation backends used for product
// suggestions.
package llm

import (
	"context"
	"errors"
	"fmt"

	"ai-shopping-list/internal/config"
)

// ErrNoContent is returned when a backend answers without any text.
var ErrNoContent = errors.New("no content generated")

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewFromConfig builds the generator selected by cfg.Assistant.
func NewFromConfig(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	if err := cfg.RequireAssistant(); err != nil {
		return nil, err
	}
	switch cfg.Assistant {
	case config.AssistantGemini:
		c, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.AssistantGroq:
		return NewGroqClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown assistant %q", cfg.Assistant)
	}
}
