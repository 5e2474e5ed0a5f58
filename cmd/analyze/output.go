package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"legaldoc/internal/analysis"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func render(w io.Writer, format, name string, r *analysis.Report) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Result)
	}

	fmt.Fprintf(w, "%s %s (%d chunks, %s)\n", color.New(color.Bold).Sprint("Analysis of"), name, r.ChunkCount, r.Duration.Round(time.Millisecond))
	section(w, color.New(color.FgCyan, color.Bold), "Key terms", r.Result.KeyTerms)
	section(w, color.New(color.FgRed, color.Bold), "Risks", r.Result.Risks)
	section(w, color.New(color.FgGreen, color.Bold), "Obligations", r.Result.Obligations)
	return nil
}

func section(w io.Writer, heading *color.Color, title string, items []string) {
	fmt.Fprintf(w, "\n%s\n", heading.Sprintf("%s (%d)", title, len(items)))
	if len(items) == 0 {
		fmt.Fprintln(w, "  none found")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
