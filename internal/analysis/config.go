package analysis

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"legaldoc/internal/config"
	"legaldoc/internal/llm"
	"legaldoc/internal/metrics"
)

// NewFromConfig builds the analyzer and pipeline both binaries run.
// A positive RateLimitRPS installs a limiter shared by every chunk request,
// with a burst equal to the concurrency.
func NewFromConfig(cfg config.AnalysisConfig, c llm.Completer, log *zap.Logger, m *metrics.Analysis) *Pipeline {
	opts := []Option{
		WithMaxRetries(cfg.MaxRetries),
		WithBaseDelay(cfg.BaseDelay()),
		WithLogger(log),
		WithMetrics(m),
	}
	if cfg.RateLimitRPS > 0 {
		opts = append(opts, WithLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), max(cfg.Concurrency, 1))))
	}

	return NewPipeline(NewAnalyzer(c, opts...),
		WithMaxChunkLength(cfg.MaxChunkLength),
		WithConcurrency(cfg.Concurrency),
		WithPipelineLogger(log),
	)
}
