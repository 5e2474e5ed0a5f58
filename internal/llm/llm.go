// Package llm adapts hosted and self-hosted completion APIs to a single Completer port.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"legaldoc/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

var (
	// ErrRateLimited matches provider failures caused by rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoChoices is returned when the provider answered without any completion.
	ErrNoChoices = errors.New("completion returned no choices")

	ErrUnknownProvider = errors.New("unknown llm provider")
)

// Request is one system+user exchange.
type Request struct {
	System string
	User   string

	// JSON asks the provider to constrain output to a JSON object when it supports it.
	JSON bool
}

// Completer sends a single chat completion and returns the raw text of the first choice.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError is a non-2xx answer from a completion API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("completion api status %d: %s", e.StatusCode, msg)
}

// Is lets errors.Is(err, ErrRateLimited) match HTTP 429 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimit reports whether err is a rate-limit signal: an HTTP 429 or a
// provider message mentioning a rate limit.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}

// NewHTTPClient returns an HTTP client with outbound tracing and the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// New builds the Completer selected by cfg.Provider.
func New(cfg config.LLMConfig, hc *http.Client) (Completer, error) {
	if hc == nil {
		hc = NewHTTPClient(time.Duration(cfg.TimeoutSec) * time.Second)
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, hc), nil
	case ProviderOllama:
		return NewOllama(cfg.OllamaBaseURL, cfg.Model, hc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
