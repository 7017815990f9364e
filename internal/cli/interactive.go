package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/trentmillar/plex-file-namer/internal/batch"
	"github.com/trentmillar/plex-file-namer/internal/database"
)

// Prompter handles user interaction. It implements batch.Confirmer.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter reads answers from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(in), out: out}
}

// Confirm shows one planned rename and asks y/n/a(ll)/q(uit). End of input
// counts as quit.
func (p *Prompter) Confirm(ctx context.Context, planned batch.Result) (batch.Decision, error) {
	if err := ctx.Err(); err != nil {
		return batch.DecisionQuit, err
	}
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "  %s %s %s\n", pterm.FgRed.Sprint("From:"), Dim(planned.Path), Dim("("+humanize.IBytes(uint64(max(planned.Size, 0)))+")"))
	fmt.Fprintf(p.out, "  %s %s\n", pterm.FgGreen.Sprint("To:  "), Path(planned.Destination))
	for _, n := range planned.Outcome.Notes {
		fmt.Fprintf(p.out, "  %s\n", Warning(n))
	}

	answer, err := p.ask("Rename this file?", "[y/n/a(ll)/q(uit)]")
	if errors.Is(err, io.EOF) {
		return batch.DecisionQuit, nil
	}
	if err != nil {
		return batch.DecisionQuit, err
	}
	switch answer {
	case "y", "yes":
		return batch.DecisionYes, nil
	case "a", "all":
		return batch.DecisionAll, nil
	case "q", "quit":
		return batch.DecisionQuit, nil
	default:
		return batch.DecisionNo, nil
	}
}

// ConfirmProceed asks once before a batch of renames.
func (p *Prompter) ConfirmProceed(count int, mode string) (bool, error) {
	fmt.Fprintln(p.out)
	pterm.Warning.WithWriter(p.out).Printf("About to %s %d files.\n", mode, count)
	answer, err := p.ask("Proceed?", "[y/n]")
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return answer == "y" || answer == "yes", nil
}

// SelectSections lists the Plex libraries and lets the user pick all of
// them (y), none (n), or a comma-separated list of numbers.
func (p *Prompter) SelectSections(sections []database.LibrarySection) ([]database.LibrarySection, error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, SubHeaderStyle.Sprint("Plex libraries"))
	for i, s := range sections {
		kind := "TV Shows"
		if s.IsMovie() {
			kind = "Movies"
		}
		fmt.Fprintf(p.out, "  %s %s %s\n", AccentStyle.Sprintf("[%d]", i+1), s.Name, Dim("("+kind+")"))
	}
	fmt.Fprintln(p.out)

	answer, err := p.ask("Process which libraries?", "[y/n/1-N]")
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	switch answer {
	case "y", "yes", "a", "all":
		return sections, nil
	case "n", "no", "":
		return nil, nil
	}

	var selected []database.LibrarySection
	seen := map[int]bool{}
	for _, part := range strings.Split(answer, ",") {
		var idx int
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &idx); err != nil {
			continue
		}
		if idx >= 1 && idx <= len(sections) && !seen[idx] {
			seen[idx] = true
			selected = append(selected, sections[idx-1])
		}
	}
	return selected, nil
}

// ask prints prompt and returns the lowercased, trimmed answer. A final line
// without a newline is still an answer.
func (p *Prompter) ask(prompt, choices string) (string, error) {
	fmt.Fprint(p.out, pterm.FgWhite.Sprint(prompt)+" "+Dim(choices+": "))
	input, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(strings.ToLower(input)), nil
}
