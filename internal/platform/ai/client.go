package ai

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Messager is the slice of the Anthropic client the generator needs; tests
// substitute a fake.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Generator produces text through the Anthropic Messages API. Model selection
// and fallback live with the caller; this type handles a single call.
type Generator struct {
	messages Messager
}

func NewGenerator(apiKey string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Generator{messages: &client.Messages}, nil
}

func NewGeneratorWithMessager(messages Messager) *Generator {
	return &Generator{messages: messages}
}

func (g *Generator) Generate(ctx context.Context, system, prompt, model string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	resp, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}
