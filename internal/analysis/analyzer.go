// Package analysis splits legal documents into chunks, asks a completion
// provider to analyze each chunk, and merges the answers.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"legaldoc/internal/llm"
	"legaldoc/internal/metrics"
	"legaldoc/internal/model"
)

// SystemPrompt is the fixed instruction sent with every chunk.
const SystemPrompt = "You are a legal document analyzer. Analyze the provided text and extract key terms, risks, and obligations. Return the results in a JSON format with three arrays: keyTerms, risks, and obligations."

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 3 * time.Second
)

// ErrRetriesExhausted wraps the last provider error once no attempts remain.
var ErrRetriesExhausted = errors.New("chunk analysis retries exhausted")

const tracerName = "legaldoc/internal/analysis"

// Analyzer obtains a ChunkAnalysis for one chunk, retrying failed
// completions with exponential backoff.
type Analyzer struct {
	completer  llm.Completer
	maxRetries int
	baseDelay  time.Duration
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
	log        *zap.Logger
	metrics    *metrics.Analysis
	tracer     trace.Tracer
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxRetries sets how many times a failed completion is retried.
func WithMaxRetries(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.maxRetries = n
		}
	}
}

// WithBaseDelay sets the backoff base; retry n waits base * 2^n.
func WithBaseDelay(d time.Duration) Option {
	return func(a *Analyzer) {
		if d >= 0 {
			a.baseDelay = d
		}
	}
}

// WithLimiter makes every outbound completion, retries included, wait on l.
func WithLimiter(l *rate.Limiter) Option {
	return func(a *Analyzer) { a.limiter = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.log = l
		}
	}
}

func WithMetrics(m *metrics.Analysis) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// NewAnalyzer returns an Analyzer using c for completions.
func NewAnalyzer(c llm.Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		completer:  c,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      sleepContext,
		log:        zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Backoff is the wait before retry number attempt+1.
func (a *Analyzer) Backoff(attempt int) time.Duration {
	return a.baseDelay * time.Duration(1<<attempt)
}

// AnalyzeChunk returns the analysis of chunk. Completion errors are retried
// up to the configured maximum; a response that does not parse yields an
// empty ChunkAnalysis rather than an error.
func (a *Analyzer) AnalyzeChunk(ctx context.Context, chunk string) (model.ChunkAnalysis, error) {
	ctx, span := a.tracer.Start(ctx, "analysis.chunk",
		trace.WithAttributes(attribute.Int("chunk.length", utf8.RuneCountInString(chunk))))
	defer span.End()

	start := time.Now()
	for attempt := 0; ; attempt++ {
		a.log.Debug("analyzing chunk",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", a.maxRetries+1))

		raw, err := a.complete(ctx, chunk)
		if err == nil {
			span.SetAttributes(attribute.Int("chunk.attempts", attempt+1))
			a.metrics.ObserveChunk("success", time.Since(start))
			return a.parse(raw), nil
		}

		if attempt >= a.maxRetries {
			a.log.Error("chunk analysis failed",
				zap.Int("attempts", attempt+1),
				zap.Error(err))
			a.metrics.ObserveChunk("failure", time.Since(start))
			span.RecordError(err)
			span.SetStatus(codes.Error, "retries exhausted")
			return model.ChunkAnalysis{}, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt+1, err)
		}

		reason := "error"
		if llm.IsRateLimit(err) {
			reason = "rate_limit"
		}
		delay := a.Backoff(attempt)
		a.log.Warn("completion failed, retrying",
			zap.String("reason", reason),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err))
		a.metrics.IncRetry(reason)

		if err := a.sleep(ctx, delay); err != nil {
			a.metrics.ObserveChunk("canceled", time.Since(start))
			return model.ChunkAnalysis{}, err
		}
	}
}

func (a *Analyzer) complete(ctx context.Context, chunk string) (string, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return a.completer.Complete(ctx, llm.Request{
		System: SystemPrompt,
		User:   chunk,
		JSON:   true,
	})
}

func (a *Analyzer) parse(raw string) model.ChunkAnalysis {
	res, err := ParseChunkAnalysis(raw)
	if err != nil {
		a.log.Warn("unparseable model response, using empty analysis",
			zap.Int("response_length", len(raw)),
			zap.Error(err))
		a.metrics.IncParseFailure()
		return model.ChunkAnalysis{}
	}
	if res.IsEmpty() {
		a.log.Debug("model response contributed no items")
	}
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
