package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are an analytics report writer that outputs JSON."

// ErrNoAPIKey is returned when no model credentials are configured.
var ErrNoAPIKey = errors.New("no OpenAI API key configured")

// Generator writes a document from a payload.
type Generator interface {
	Generate(ctx context.Context, p *Payload) (*Document, error)
}

// OpenAIOptions configures OpenAIGenerator.
type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// OpenAIGenerator asks a chat completion model for the document.
type OpenAIGenerator struct {
	client *openai.Client
	opts   OpenAIOptions
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, p *Payload) (*Document, error) {
	prompt, err := p.Prompt()
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model: g.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.opts.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if g.opts.MaxTokens > 0 {
		req.MaxCompletionTokens = g.opts.MaxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	doc, err := ParseDocument(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	doc.Model = g.opts.Model
	return doc, nil
}
