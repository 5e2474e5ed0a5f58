package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldoc/internal/config"
)

func TestStatusError(t *testing.T) {
	rl := &StatusError{StatusCode: http.StatusTooManyRequests}
	assert.True(t, errors.Is(rl, ErrRateLimited))
	assert.Contains(t, rl.Error(), "429")
	assert.Contains(t, rl.Error(), "Too Many Requests")

	other := &StatusError{StatusCode: http.StatusBadGateway, Message: "upstream down"}
	assert.False(t, errors.Is(other, ErrRateLimited))
	assert.Contains(t, other.Error(), "upstream down")
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "status 429", err: &StatusError{StatusCode: 429}, want: true},
		{name: "wrapped 429", err: fmt.Errorf("call: %w", &StatusError{StatusCode: 429}), want: true},
		{name: "message", err: errors.New("Rate limit reached for gpt-4o-mini"), want: true},
		{name: "lowercase message", err: errors.New("provider: rate limit exceeded"), want: true},
		{name: "server error", err: &StatusError{StatusCode: 500}, want: false},
		{name: "plain", err: errors.New("connection reset"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimit(tt.err))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("openai default", func(t *testing.T) {
		c, err := New(config.LLMConfig{Model: "gpt-4o-mini"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &OpenAI{}, c)
	})

	t.Run("ollama", func(t *testing.T) {
		c, err := New(config.LLMConfig{Provider: "Ollama", OllamaBaseURL: "http://localhost:11434"}, nil)
		require.NoError(t, err)
		o, ok := c.(*Ollama)
		require.True(t, ok)
		assert.Equal(t, defaultOllamaModel, o.model)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(config.LLMConfig{Provider: "carrier-pigeon"}, nil)
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}
