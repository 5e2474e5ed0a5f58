package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaldoc/internal/model"
)

// chunkFunc adapts a function to ChunkAnalyzer.
type chunkFunc func(ctx context.Context, chunk string) (model.ChunkAnalysis, error)

func (f chunkFunc) AnalyzeChunk(ctx context.Context, chunk string) (model.ChunkAnalysis, error) {
	return f(ctx, chunk)
}

// echoAnalyzer reports each chunk's first word as a key term and every
// chunk as sharing the "Governing law" risk.
func echoAnalyzer(calls *atomic.Int32) ChunkAnalyzer {
	return chunkFunc(func(ctx context.Context, chunk string) (model.ChunkAnalysis, error) {
		calls.Add(1)
		return model.ChunkAnalysis{
			KeyTerms: []string{strings.Fields(chunk)[0]},
			Risks:    []string{"Governing law"},
		}, nil
	})
}

const threeChunks = "Alpha clause applies. Bravo clause applies. Charlie clause applies."

func TestPipeline_EmptyDocument(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t\n"} {
		var calls atomic.Int32
		p := NewPipeline(echoAnalyzer(&calls))

		report, err := p.Run(context.Background(), text)

		assert.ErrorIs(t, err, ErrEmptyDocument)
		assert.Nil(t, report)
		assert.Zero(t, calls.Load())
	}
}

func TestPipeline_Sequential(t *testing.T) {
	var calls atomic.Int32
	p := NewPipeline(echoAnalyzer(&calls), WithMaxChunkLength(25))

	report, err := p.Run(context.Background(), threeChunks)
	require.NoError(t, err)

	want := model.AnalysisResult{
		KeyTerms:    []string{"Alpha", "Bravo", "Charlie"},
		Risks:       []string{"Governing law"},
		Obligations: []string{},
	}
	if diff := cmp.Diff(want, report.Result); diff != "" {
		t.Errorf("Result mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, report.ChunkCount)
	assert.EqualValues(t, 3, calls.Load())
}

func TestPipeline_SingleChunk(t *testing.T) {
	var seen []string
	an := chunkFunc(func(ctx context.Context, chunk string) (model.ChunkAnalysis, error) {
		seen = append(seen, chunk)
		return model.ChunkAnalysis{}, nil
	})

	report, err := NewPipeline(an).Run(context.Background(), "  "+threeChunks+"\n")
	require.NoError(t, err)

	assert.Equal(t, []string{threeChunks}, seen)
	assert.Equal(t, 1, report.ChunkCount)
}

func TestPipeline_ConcurrentMatchesSequential(t *testing.T) {
	var text strings.Builder
	for _, w := range []string{"Lessor", "Lessee", "Deposit", "Term", "Renewal", "Indemnity", "Notice", "Default"} {
		text.WriteString(w + " must be read carefully. ")
	}

	var seqCalls atomic.Int32
	seq, err := NewPipeline(echoAnalyzer(&seqCalls), WithMaxChunkLength(40)).
		Run(context.Background(), text.String())
	require.NoError(t, err)

	// later chunks finish first to shake out completion-order merging
	slow := chunkFunc(func(ctx context.Context, chunk string) (model.ChunkAnalysis, error) {
		if strings.HasPrefix(chunk, "Lessor") {
			time.Sleep(20 * time.Millisecond)
		}
		return model.ChunkAnalysis{
			KeyTerms: []string{strings.Fields(chunk)[0]},
			Risks:    []string{"Governing law"},
		}, nil
	})
	con, err := NewPipeline(slow, WithMaxChunkLength(40), WithConcurrency(4)).
		Run(context.Background(), text.String())
	require.NoError(t, err)

	if diff := cmp.Diff(seq.Result, con.Result); diff != "" {
		t.Errorf("concurrent result differs (-seq +con):\n%s", diff)
	}
	assert.Equal(t, seq.ChunkCount, con.ChunkCount)
	assert.Equal(t, "Lessor", con.Result.KeyTerms[0])
}

func TestPipeline_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	an := chunkFunc(func(ctx context.Context, chunk string) (model.ChunkAnalysis, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return model.ChunkAnalysis{}, nil
	})

	text := strings.Repeat("Each party bears its own costs. ", 12)
	_, err := NewPipeline(an, WithMaxChunkLength(32), WithConcurrency(3)).
		Run(context.Background(), text)

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestPipeline_ChunkFailureFailsRun(t *testing.T) {
	boom := errors.New("provider down")
	tests := []struct {
		name        string
		concurrency int
	}{
		{name: "sequential", concurrency: 1},
		{name: "concurrent", concurrency: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			an := chunkFunc(func(ctx context.Context, chunk string) (model.ChunkAnalysis, error) {
				if strings.HasPrefix(chunk, "Bravo") {
					return model.ChunkAnalysis{}, boom
				}
				return model.ChunkAnalysis{KeyTerms: []string{"ok"}}, nil
			})

			report, err := NewPipeline(an, WithMaxChunkLength(25), WithConcurrency(tt.concurrency)).
				Run(context.Background(), threeChunks)

			assert.Nil(t, report)
			assert.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), "chunk 2/3")
		})
	}
}

func TestPipeline_SequentialStopsAtFailure(t *testing.T) {
	var calls atomic.Int32
	an := chunkFunc(func(ctx context.Context, chunk string) (model.ChunkAnalysis, error) {
		calls.Add(1)
		return model.ChunkAnalysis{}, ErrRetriesExhausted
	})

	_, err := NewPipeline(an, WithMaxChunkLength(25)).Run(context.Background(), threeChunks)

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.EqualValues(t, 1, calls.Load())
}

func TestPipeline_Progress(t *testing.T) {
	var calls atomic.Int32
	var (
		mu    sync.Mutex
		ticks [][2]int
	)
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		ticks = append(ticks, [2]int{done, total})
	}

	_, err := NewPipeline(echoAnalyzer(&calls), WithMaxChunkLength(25), WithConcurrency(2)).
		RunWithProgress(context.Background(), threeChunks, progress)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, ticks)
}

func TestPipeline_WithAnalyzer(t *testing.T) {
	c := &scriptedCompleter{steps: []step{
		{out: `{"keyTerms":["Rent"],"risks":["Late fee"],"obligations":["Pay monthly"]}`},
		{out: "not json"},
		{out: `{"keyTerms":["rent","Deposit"],"obligations":["Pay monthly"]}`},
	}}
	a := NewAnalyzer(c)
	recordSleeps(a)

	report, err := NewPipeline(a, WithMaxChunkLength(25)).Run(context.Background(), threeChunks)
	require.NoError(t, err)

	want := model.AnalysisResult{
		KeyTerms:    []string{"Rent", "rent", "Deposit"},
		Risks:       []string{"Late fee"},
		Obligations: []string{"Pay monthly"},
	}
	if diff := cmp.Diff(want, report.Result); diff != "" {
		t.Errorf("Result mismatch (-want +got):\n%s", diff)
	}
}
