package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/trentmillar/plex-file-namer/internal/batch"
	"github.com/trentmillar/plex-file-namer/internal/database"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

// Banner prints the application banner.
func Banner(w io.Writer, version string) {
	text, err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("Plex", pterm.NewStyle(pterm.FgCyan)),
		pterm.NewLettersFromStringWithStyle("Namer", pterm.NewStyle(pterm.FgLightMagenta)),
	).Srender()
	if err == nil {
		fmt.Fprint(w, text)
	}
	fmt.Fprintln(w, DimStyle.Sprintf("%s - identify and rename movies and TV episodes for Plex", version))
	fmt.Fprintln(w)
}

// Preview lists planned renames, at most limit of them (0 means all).
func Preview(w io.Writer, planned []batch.Result, limit int) {
	fmt.Fprintln(w)
	fmt.Fprint(w, pterm.DefaultSection.Sprint("Planned Renames"))

	count := len(planned)
	if limit > 0 && count > limit {
		count = limit
	}
	var total int64
	for _, r := range planned {
		total += r.Size
	}
	for _, r := range planned[:count] {
		fmt.Fprintf(w, "  %s %s\n", pterm.FgRed.Sprint("From:"), Dim(r.Path))
		fmt.Fprintf(w, "  %s %s\n", pterm.FgGreen.Sprint("To:  "), Path(filepath.Base(r.Destination)))
		for _, n := range r.Outcome.Notes {
			fmt.Fprintf(w, "  %s\n", Warning(n))
		}
		fmt.Fprintln(w)
	}
	if count < len(planned) {
		fmt.Fprintln(w, Dim(fmt.Sprintf("  ... and %d more files", len(planned)-count)))
	}
	fmt.Fprintln(w, Label("  Total", fmt.Sprintf("%d files, %s", len(planned), humanize.IBytes(uint64(max(total, 0))))))
}

// ResultLine prints one result as it happens.
func ResultLine(w io.Writer, r batch.Result) {
	name := filepath.Base(r.Path)
	switch r.Status {
	case batch.StatusRenamed:
		fmt.Fprintf(w, "%s %s %s %s\n", Success("renamed"), name, Dim("->"), Path(filepath.Base(r.Destination)))
	case batch.StatusPlanned:
		fmt.Fprintf(w, "%s %s %s %s\n", Accent("planned"), name, Dim("->"), Path(filepath.Base(r.Destination)))
	case batch.StatusSkipped:
		fmt.Fprintf(w, "%s %s %s\n", Warning("skipped"), name, Dim("("+r.Message+")"))
	default:
		fmt.Fprintf(w, "%s %s %s\n", Error("failed "), name, Dim(errText(r)))
	}
}

// Summary prints the results box and the failures in detail.
func Summary(w io.Writer, sum batch.Summary) {
	content := fmt.Sprintf(
		"%s %d   %s %d   %s %d   %s %d",
		pterm.FgGreen.Sprint("Renamed:"), sum.Count(batch.StatusRenamed),
		pterm.FgMagenta.Sprint("Planned:"), sum.Count(batch.StatusPlanned),
		pterm.FgYellow.Sprint("Skipped:"), sum.Count(batch.StatusSkipped),
		pterm.FgRed.Sprint("Failed:"), sum.Count(batch.StatusFailed),
	)
	fmt.Fprintln(w)
	fmt.Fprintln(w, pterm.DefaultBox.WithTitle("Results").Sprint(content))
	if sum.Stopped {
		fmt.Fprintln(w, Warning("Stopped before all files were processed."))
	}

	var failed []batch.Result
	for _, r := range sum.Results {
		if r.Status == batch.StatusFailed {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, Error("Failed files:"))
	for _, r := range failed {
		fmt.Fprintf(w, "  %s\n", r.Path)
		fmt.Fprintf(w, "    %s %s\n", pterm.FgRed.Sprint("Error:"), errText(r))
	}
}

func errText(r batch.Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Message
}

// RevertSummary prints what a revert did.
func RevertSummary(w io.Writer, results []renamer.RevertResult, dryRun bool) {
	var reverted, skipped, failed int
	verb := "reverted"
	if dryRun {
		verb = "would revert"
	}
	for _, r := range results {
		switch r.Status {
		case renamer.Reverted:
			reverted++
			fmt.Fprintf(w, "%s %s %s %s\n", Success(verb), filepath.Base(r.From), Dim("->"), Path(filepath.Base(r.To)))
		case renamer.RevertSkipped:
			skipped++
			fmt.Fprintf(w, "%s %s %s\n", Warning("skipped"), filepath.Base(r.NotePath), Dim(revertErr(r.Err)))
		default:
			failed++
			fmt.Fprintf(w, "%s %s %s\n", Error("failed "), filepath.Base(r.NotePath), Dim(revertErr(r.Err)))
		}
	}
	content := fmt.Sprintf("%s %d   %s %d   %s %d",
		pterm.FgGreen.Sprint("Reverted:"), reverted,
		pterm.FgYellow.Sprint("Skipped:"), skipped,
		pterm.FgRed.Sprint("Failed:"), failed,
	)
	fmt.Fprintln(w)
	fmt.Fprintln(w, pterm.DefaultBox.WithTitle("Revert").Sprint(content))
}

func revertErr(err error) string {
	if err == nil {
		return ""
	}
	return "(" + err.Error() + ")"
}

// History renders journal entries as a table with relative times.
func History(w io.Writer, entries []database.JournalEntry, now time.Time) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, Dim("No renames recorded yet."))
		return nil
	}
	data := pterm.TableData{{"When", "Status", "From", "To", "Run"}}
	for _, e := range entries {
		data = append(data, []string{
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
			string(e.Status),
			filepath.Base(e.OriginalPath),
			filepath.Base(e.NewPath),
			shortRun(e.RunID),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render history: %w", err)
	}
	fmt.Fprintln(w, table)
	return nil
}

func shortRun(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// NewProgress starts a progress bar on w. Call Increment per step and Stop
// when done.
func NewProgress(w io.Writer, total int, title string) (*pterm.ProgressbarPrinter, error) {
	return pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithShowCount(true).
		WithShowPercentage(true).
		WithShowElapsedTime(false).
		WithWriter(w).
		Start()
}
