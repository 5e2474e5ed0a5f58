package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"legaldoc/internal/analysis"
	"legaldoc/internal/config"
	"legaldoc/internal/extract"
	"legaldoc/internal/llm"
	"legaldoc/internal/logger"
	"legaldoc/internal/metrics"
)

type options struct {
	configPath  string
	maxChunk    int
	concurrency int
	provider    string
	model       string
	format      string
	quiet       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "legaldoc-analyze [file]",
		Short: "Extract key terms, risks and obligations from a legal document",
		Long: `Reads a pdf, doc, docx or txt file, splits its text into chunks, asks the
configured completion provider about each chunk and prints the merged result.

Configuration comes from the environment (.env is loaded when present) and
an optional YAML file given with --config. Flags override both.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.IntVar(&opts.maxChunk, "max-chunk", 0, "maximum chunk length in characters (default from config)")
	f.IntVar(&opts.concurrency, "concurrency", 0, "chunks analyzed in parallel (default from config)")
	f.StringVar(&opts.provider, "provider", "", "completion provider: openai or ollama")
	f.StringVar(&opts.model, "model", "", "model name")
	f.StringVar(&opts.format, "format", formatText, "output format: text or json")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func (o *options) apply(cfg *config.AppConfig) {
	if o.maxChunk > 0 {
		cfg.Analysis.MaxChunkLength = o.maxChunk
	}
	if o.concurrency > 0 {
		cfg.Analysis.Concurrency = o.concurrency
	}
	if o.provider != "" {
		cfg.LLM.Provider = o.provider
	}
	if o.model != "" {
		cfg.LLM.Model = o.model
	}
}

func run(ctx context.Context, opts *options, path string) error {
	if opts.format != formatText && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	text, err := extract.Text(data, filepath.Base(path), "")
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	// logs go to stderr so --format json output stays parseable
	zl := logger.New(os.Stderr, cfg.Location(), "error")
	completer, err := llm.New(cfg.LLM, llm.NewHTTPClient(time.Duration(cfg.LLM.TimeoutSec)*time.Second))
	if err != nil {
		return err
	}
	m, err := metrics.NewAnalysis(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	p := analysis.NewFromConfig(cfg.Analysis, completer, zl, m)

	var progress analysis.ProgressFunc
	if !opts.quiet {
		var bar *progressbar.ProgressBar
		progress = func(done, total int) {
			if bar == nil {
				bar = newProgressBar(total, "Analyzing chunks")
			}
			_ = bar.Set(done)
		}
	}

	report, err := p.RunWithProgress(ctx, text, progress)
	if err != nil {
		return err
	}
	return render(os.Stdout, opts.format, filepath.Base(path), report)
}
