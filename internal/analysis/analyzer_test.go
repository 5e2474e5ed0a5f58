package analysis

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"legaldoc/internal/llm"
	"legaldoc/internal/metrics"
	"legaldoc/internal/model"
)

type step struct {
	out string
	err error
}

// scriptedCompleter replays steps in order and repeats the last one.
type scriptedCompleter struct {
	mu    sync.Mutex
	steps []step
	calls int
	reqs  []llm.Request
}

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	s.reqs = append(s.reqs, req)
	return s.steps[i].out, s.steps[i].err
}

// recordSleeps replaces the backoff wait with a recorder.
func recordSleeps(a *Analyzer) *[]time.Duration {
	var delays []time.Duration
	a.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return &delays
}

var rateLimited = &llm.StatusError{StatusCode: http.StatusTooManyRequests, Message: "Rate limit reached"}

func TestAnalyzer_Success(t *testing.T) {
	c := &scriptedCompleter{steps: []step{{out: `{"keyTerms":["Lease"],"risks":[],"obligations":["Pay rent"]}`}}}
	a := NewAnalyzer(c, WithBaseDelay(time.Second))
	delays := recordSleeps(a)

	got, err := a.AnalyzeChunk(context.Background(), "The tenant pays rent.")

	require.NoError(t, err)
	assert.Equal(t, []string{"Lease"}, got.KeyTerms)
	assert.Equal(t, []string{"Pay rent"}, got.Obligations)
	assert.Empty(t, *delays)
	require.Len(t, c.reqs, 1)
	assert.Equal(t, SystemPrompt, c.reqs[0].System)
	assert.Equal(t, "The tenant pays rent.", c.reqs[0].User)
	assert.True(t, c.reqs[0].JSON)
}

func TestAnalyzer_RateLimitThenSuccess(t *testing.T) {
	c := &scriptedCompleter{steps: []step{
		{err: rateLimited},
		{out: `{"risks":["Termination fee"]}`},
	}}
	a := NewAnalyzer(c, WithBaseDelay(1000*time.Millisecond))
	delays := recordSleeps(a)

	got, err := a.AnalyzeChunk(context.Background(), "chunk")

	require.NoError(t, err)
	assert.Equal(t, []string{"Termination fee"}, got.Risks)
	assert.Equal(t, 2, c.calls)
	assert.Equal(t, []time.Duration{time.Second}, *delays)
}

func TestAnalyzer_ExhaustsRetries(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLimit bool
	}{
		{name: "rate limited", err: rateLimited, wantLimit: true},
		{name: "server error", err: &llm.StatusError{StatusCode: http.StatusBadGateway}},
		{name: "transport error", err: errors.New("connection reset by peer")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedCompleter{steps: []step{{err: tt.err}}}
			a := NewAnalyzer(c, WithBaseDelay(100*time.Millisecond))
			delays := recordSleeps(a)

			_, err := a.AnalyzeChunk(context.Background(), "chunk")

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRetriesExhausted)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantLimit, llm.IsRateLimit(err))
			// one initial attempt plus three retries, never a fifth call
			assert.Equal(t, 4, c.calls)
			assert.Equal(t, []time.Duration{
				100 * time.Millisecond,
				200 * time.Millisecond,
				400 * time.Millisecond,
			}, *delays)
		})
	}
}

func TestAnalyzer_UnparseableResponse(t *testing.T) {
	c := &scriptedCompleter{steps: []step{{out: "I cannot comply with JSON today."}}}
	reg := prometheus.NewRegistry()
	m, err := metrics.NewAnalysis(reg)
	require.NoError(t, err)

	a := NewAnalyzer(c, WithMetrics(m))
	delays := recordSleeps(a)

	got, err := a.AnalyzeChunk(context.Background(), "chunk")

	require.NoError(t, err)
	assert.Equal(t, model.ChunkAnalysis{}, got)
	assert.Equal(t, 1, c.calls)
	assert.Empty(t, *delays)
	expected := `
# HELP analysis_chunk_parse_failures_total Model responses that could not be parsed as an analysis.
# TYPE analysis_chunk_parse_failures_total counter
analysis_chunk_parse_failures_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, stringsReader(expected), "analysis_chunk_parse_failures_total"))
}

func TestAnalyzer_ZeroRetries(t *testing.T) {
	c := &scriptedCompleter{steps: []step{{err: rateLimited}}}
	a := NewAnalyzer(c, WithMaxRetries(0))
	delays := recordSleeps(a)

	_, err := a.AnalyzeChunk(context.Background(), "chunk")

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 1, c.calls)
	assert.Empty(t, *delays)
}

func TestAnalyzer_CanceledDuringBackoff(t *testing.T) {
	c := &scriptedCompleter{steps: []step{{err: rateLimited}}}
	a := NewAnalyzer(c, WithBaseDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := a.AnalyzeChunk(ctx, "chunk")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, c.calls)
}

func TestAnalyzer_Limiter(t *testing.T) {
	c := &scriptedCompleter{steps: []step{{out: `{}`}}}
	// a limiter with no burst can never admit a request
	a := NewAnalyzer(c, WithLimiter(rate.NewLimiter(rate.Limit(1), 0)), WithMaxRetries(0))

	_, err := a.AnalyzeChunk(context.Background(), "chunk")

	assert.Error(t, err)
	assert.Equal(t, 0, c.calls)
}

func TestAnalyzer_RetryMetrics(t *testing.T) {
	c := &scriptedCompleter{steps: []step{
		{err: rateLimited},
		{err: errors.New("timeout")},
		{out: `{"keyTerms":["X"]}`},
	}}
	reg := prometheus.NewRegistry()
	m, err := metrics.NewAnalysis(reg)
	require.NoError(t, err)

	a := NewAnalyzer(c, WithMetrics(m))
	recordSleeps(a)

	_, err = a.AnalyzeChunk(context.Background(), "chunk")
	require.NoError(t, err)

	expected := `
# HELP analysis_chunk_retries_total Completion retries, by reason.
# TYPE analysis_chunk_retries_total counter
analysis_chunk_retries_total{reason="error"} 1
analysis_chunk_retries_total{reason="rate_limit"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, stringsReader(expected), "analysis_chunk_retries_total"))
}

func TestBackoff(t *testing.T) {
	a := NewAnalyzer(nil, WithBaseDelay(3*time.Second))

	assert.Equal(t, 3*time.Second, a.Backoff(0))
	assert.Equal(t, 6*time.Second, a.Backoff(1))
	assert.Equal(t, 12*time.Second, a.Backoff(2))
}
