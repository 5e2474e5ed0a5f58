package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"legaldoc/internal/model"
)

// ErrEmptyDocument is returned before any outbound call when there is no text to analyze.
var ErrEmptyDocument = errors.New("no document text provided")

// ChunkAnalyzer analyzes a single chunk. *Analyzer implements it.
type ChunkAnalyzer interface {
	AnalyzeChunk(ctx context.Context, chunk string) (model.ChunkAnalysis, error)
}

// ProgressFunc is called after each chunk completes. Calls are serialized.
type ProgressFunc func(done, total int)

// Report is the outcome of one pipeline run.
type Report struct {
	Result     model.AnalysisResult
	ChunkCount int
	Duration   time.Duration
}

// Pipeline runs split, per-chunk analysis and merge for a whole document.
type Pipeline struct {
	analyzer       ChunkAnalyzer
	maxChunkLength int
	concurrency    int
	log            *zap.Logger
	tracer         trace.Tracer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

func WithMaxChunkLength(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxChunkLength = n
		}
	}
}

// WithConcurrency bounds in-flight chunk requests. Values below 2 analyze sequentially.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) { p.concurrency = n }
}

func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPipeline returns a Pipeline delegating chunk work to an.
func NewPipeline(an ChunkAnalyzer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		analyzer:       an,
		maxChunkLength: DefaultMaxChunkLength,
		concurrency:    1,
		log:            zap.NewNop(),
		tracer:         otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyzes text and returns the merged result.
func (p *Pipeline) Run(ctx context.Context, text string) (*Report, error) {
	return p.RunWithProgress(ctx, text, nil)
}

// RunWithProgress is Run with a progress callback. The run either succeeds
// for every chunk or fails as a whole with the first chunk error.
func (p *Pipeline) RunWithProgress(ctx context.Context, text string, progress ProgressFunc) (*Report, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	start := time.Now()

	chunks := Split(text, p.maxChunkLength)
	ctx, span := p.tracer.Start(ctx, "analysis.document",
		trace.WithAttributes(
			attribute.Int("document.chunks", len(chunks)),
			attribute.Int("analysis.concurrency", p.concurrency),
		))
	defer span.End()

	p.log.Info("document split into chunks",
		zap.Int("chunks", len(chunks)),
		zap.Int("max_chunk_length", p.maxChunkLength))

	results, err := p.analyzeAll(ctx, chunks, progress)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	report := &Report{
		Result:     Merge(results),
		ChunkCount: len(chunks),
		Duration:   time.Since(start),
	}
	p.log.Info("analysis completed",
		zap.Int("chunks", report.ChunkCount),
		zap.Int("key_terms", len(report.Result.KeyTerms)),
		zap.Int("risks", len(report.Result.Risks)),
		zap.Int("obligations", len(report.Result.Obligations)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// analyzeAll stores results by chunk index, so merge order is chunk order
// whatever order the requests complete in.
func (p *Pipeline) analyzeAll(ctx context.Context, chunks []string, progress ProgressFunc) ([]model.ChunkAnalysis, error) {
	results := make([]model.ChunkAnalysis, len(chunks))
	total := len(chunks)

	var (
		mu   sync.Mutex
		done int
	)
	tick := func() {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		progress(done, total)
	}

	if p.concurrency <= 1 {
		for i, chunk := range chunks {
			r, err := p.analyzer.AnalyzeChunk(ctx, chunk)
			if err != nil {
				return nil, fmt.Errorf("chunk %d/%d: %w", i+1, total, err)
			}
			results[i] = r
			tick()
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := p.analyzer.AnalyzeChunk(gctx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, total, err)
			}
			results[i] = r
			tick()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
