package renamer

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// Shell selects the script dialect written by Script.
type Shell string

const (
	ShellCmd        Shell = "cmd"
	ShellPowerShell Shell = "powershell"
	ShellBash       Shell = "bash"
)

// ParseShell accepts the shell names and their common aliases.
func ParseShell(s string) (Shell, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cmd", "bat", "batch":
		return ShellCmd, nil
	case "powershell", "ps", "ps1":
		return ShellPowerShell, nil
	case "bash", "sh":
		return ShellBash, nil
	}
	return "", fmt.Errorf("unknown script shell %q (want bash, powershell or cmd)", s)
}

// DefaultFilename is the script name used when none is given.
func (s Shell) DefaultFilename() string {
	switch s {
	case ShellPowerShell:
		return "rename.ps1"
	case ShellBash:
		return "rename.sh"
	default:
		return "rename.bat"
	}
}

// ScriptEntry is one planned file operation.
type ScriptEntry struct {
	Source      string
	Destination string
}

// Script renders planned renames as a shell script instead of executing them.
type Script struct {
	Shell     Shell
	Mode      OperationMode
	OutputDir string
	Entries   []ScriptEntry
}

// EntriesFor converts rename operations into script entries using the
// executor's destination rules.
func EntriesFor(e *Executor, ops []media.RenameOperation) []ScriptEntry {
	out := make([]ScriptEntry, 0, len(ops))
	for _, op := range ops {
		out = append(out, ScriptEntry{Source: filepath.FromSlash(op.OriginalPath), Destination: e.Destination(op)})
	}
	return out
}

// Write renders the script in its dialect.
func (s Script) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	switch s.Shell {
	case ShellPowerShell:
		s.writePowerShell(bw)
	case ShellBash:
		s.writeBash(bw)
	default:
		s.writeCmd(bw)
	}
	return bw.Flush()
}

// WritePreview renders a plain-text listing of the plan for dry runs.
func (s Script) WritePreview(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "============================================")
	fmt.Fprintln(bw, "plex-file-namer - DRY RUN PREVIEW")
	fmt.Fprintln(bw, "============================================")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Mode: %s\n", s.Mode)
	fmt.Fprintf(bw, "Output directory: %s\n", s.outputDir())
	fmt.Fprintf(bw, "Total operations: %d\n", len(s.Entries))
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "This is a PREVIEW - no files will be modified.")
	fmt.Fprintln(bw, "Remove --dry-run flag to generate an executable script.")
	fmt.Fprintln(bw)

	for i, e := range s.Entries {
		fmt.Fprintf(bw, "[%d] %s\n", i+1, s.Mode)
		fmt.Fprintf(bw, "    From: %s\n", e.Source)
		fmt.Fprintf(bw, "    To:   %s\n", e.Destination)
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, "============================================")
	fmt.Fprintf(bw, "Total: %d operations\n", len(s.Entries))
	fmt.Fprintln(bw, "============================================")
	return bw.Flush()
}

func (s Script) outputDir() string {
	if s.OutputDir == "" {
		return "(same folder as source)"
	}
	return s.OutputDir
}

func (s Script) header(w io.Writer, comment string) {
	fmt.Fprintf(w, "%s ============================================\n", comment)
	fmt.Fprintf(w, "%s Generated by plex-file-namer\n", comment)
	fmt.Fprintf(w, "%s ============================================\n", comment)
	fmt.Fprintf(w, "%s Mode: %s\n", comment, s.Mode)
	fmt.Fprintf(w, "%s Output directory: %s\n", comment, s.outputDir())
	fmt.Fprintf(w, "%s Total operations: %d\n", comment, len(s.Entries))
	fmt.Fprintf(w, "%s This script skips files that already exist at the destination.\n", comment)
	fmt.Fprintf(w, "%s ============================================\n", comment)
	fmt.Fprintln(w)
}

func (s Script) writeCmd(w io.Writer) {
	fmt.Fprintln(w, "@echo off")
	s.header(w, "REM")

	verb := "move"
	if s.Mode == ModeCopy {
		verb = "copy"
	}
	total := len(s.Entries)
	for i, e := range s.Entries {
		src := escapeCmdPath(e.Source)
		dst := escapeCmdPath(e.Destination)
		destDir := escapeCmdPath(filepath.Dir(e.Destination))

		fmt.Fprintf(w, "echo [%d/%d] %s\n", i+1, total, s.Mode)
		fmt.Fprintf(w, "echo   From: %s\n", src)
		fmt.Fprintf(w, "echo   To:   %s\n", dst)
		fmt.Fprintf(w, "if not exist \"%s\" mkdir \"%s\"\n", destDir, destDir)
		fmt.Fprintf(w, "if not exist \"%s\" %s \"%s\" \"%s\"\n", dst, verb, src, dst)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "echo.")
	fmt.Fprintf(w, "echo Completed %d operations.\n", total)
	fmt.Fprintln(w, "pause")
}

// escapeCmdPath escapes special characters for Windows batch scripts
func escapeCmdPath(path string) string {
	// percent first, then caret, since the later escapes add carets
	result := strings.ReplaceAll(path, "%", "%%")
	result = strings.ReplaceAll(result, "^", "^^")
	for _, c := range []string{"&", "<", ">", "|", "!"} {
		result = strings.ReplaceAll(result, c, "^"+c)
	}
	return result
}

func (s Script) writePowerShell(w io.Writer) {
	s.header(w, "#")

	verb := "Move-Item"
	if s.Mode == ModeCopy {
		verb = "Copy-Item"
	}
	quote := func(p string) string { return strings.ReplaceAll(p, "'", "''") }
	total := len(s.Entries)
	for i, e := range s.Entries {
		src, dst, destDir := quote(e.Source), quote(e.Destination), quote(filepath.Dir(e.Destination))

		fmt.Fprintf(w, "Write-Host '[%d/%d] %s'\n", i+1, total, s.Mode)
		fmt.Fprintf(w, "Write-Host '  From: %s'\n", src)
		fmt.Fprintf(w, "Write-Host '  To:   %s'\n", dst)
		fmt.Fprintf(w, "if (-not (Test-Path -LiteralPath '%s')) { New-Item -ItemType Directory -Path '%s' -Force | Out-Null }\n", destDir, destDir)
		fmt.Fprintf(w, "if (-not (Test-Path -LiteralPath '%s')) { %s -LiteralPath '%s' -Destination '%s' }\n", dst, verb, src, dst)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Write-Host 'Completed %d operations.'\n", total)
}

func (s Script) writeBash(w io.Writer) {
	fmt.Fprintln(w, "#!/bin/bash")
	s.header(w, "#")

	verb := "mv"
	if s.Mode == ModeCopy {
		verb = "cp"
	}
	quote := func(p string) string { return strings.ReplaceAll(p, "'", `'\''`) }
	total := len(s.Entries)
	for i, e := range s.Entries {
		src, dst, destDir := quote(e.Source), quote(e.Destination), quote(filepath.Dir(e.Destination))

		fmt.Fprintf(w, "echo '[%d/%d] %s'\n", i+1, total, s.Mode)
		fmt.Fprintf(w, "echo '  From: %s'\n", src)
		fmt.Fprintf(w, "echo '  To:   %s'\n", dst)
		fmt.Fprintf(w, "mkdir -p '%s'\n", destDir)
		fmt.Fprintf(w, "[ ! -e '%s' ] && %s -- '%s' '%s'\n", dst, verb, src, dst)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "echo 'Completed %d operations.'\n", total)
}
