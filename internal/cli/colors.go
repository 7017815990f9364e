package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Styled printers for consistent output
var (
	HeaderStyle    = pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	SubHeaderStyle = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	SuccessStyle   = pterm.NewStyle(pterm.FgGreen)
	ErrorStyle     = pterm.NewStyle(pterm.FgRed)
	WarningStyle   = pterm.NewStyle(pterm.FgYellow)
	DimStyle       = pterm.NewStyle(pterm.FgGray)
	PathStyle      = pterm.NewStyle(pterm.FgCyan)
	AccentStyle    = pterm.NewStyle(pterm.FgMagenta, pterm.Bold)
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ConfigureStyling turns colors off when stdout is not a terminal, so piped
// output and log captures stay plain.
func ConfigureStyling(noColor bool) {
	if noColor || !IsTerminal(os.Stdout) {
		pterm.DisableStyling()
	}
}

// Styled text helpers for inline use
func Dim(text string) string {
	return DimStyle.Sprint(text)
}

func Accent(text string) string {
	return AccentStyle.Sprint(text)
}

func Success(text string) string {
	return SuccessStyle.Sprint(text)
}

func Error(text string) string {
	return ErrorStyle.Sprint(text)
}

func Warning(text string) string {
	return WarningStyle.Sprint(text)
}

func Path(text string) string {
	return PathStyle.Sprint(text)
}

// Label renders a dimmed "label:" followed by value.
func Label(label, value string) string {
	return fmt.Sprintf("%s %s", DimStyle.Sprint(label+":"), value)
}
