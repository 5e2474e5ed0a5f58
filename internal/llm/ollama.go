package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

// Ollama implements Completer against a self-hosted Ollama server through langchaingo.
type Ollama struct {
	llm   llms.Model
	model string
}

var _ Completer = (*Ollama)(nil)

// NewOllama creates an Ollama completer with JSON output enabled.
func NewOllama(baseURL, model string, hc *http.Client) (*Ollama, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" || model == defaultOpenAIModel {
		model = defaultOllamaModel
	}
	opts := []ollama.Option{
		ollama.WithModel(model),
		ollama.WithServerURL(baseURL),
		ollama.WithFormat("json"),
	}
	if hc != nil {
		opts = append(opts, ollama.WithHTTPClient(hc))
	}
	l, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama: %w", err)
	}
	return &Ollama{llm: l, model: model}, nil
}

// Complete sends the system instruction and user text and returns the first choice.
func (o *Ollama) Complete(ctx context.Context, req Request) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}
	resp, err := o.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Content, nil
}
