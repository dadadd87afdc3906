// Package llm abstracts the language-model dependency to a single
// text-completion call so the decision engine and orchestrator can be
// tested against fakes.
package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Request is one completion: a system instruction, a user-facing prompt,
// and a sampling temperature.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
	// Model overrides the completer's default when non-empty.
	Model string
}

// Completer issues one completion per call and returns the model's free
// text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// DefaultModel is used when neither the request nor the constructor names
// a model.
const DefaultModel = "claude-sonnet-4-20250514"

const defaultMaxTokens = 1024

// Anthropic is the Claude-backed Completer.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates a Completer using the given API key and default
// model. Pass model == "" to use DefaultModel.
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = DefaultModel
	}
	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete issues one Messages call and concatenates the text blocks of
// the response.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
