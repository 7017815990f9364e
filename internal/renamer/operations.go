package renamer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// OperationMode defines how files should be processed
type OperationMode string

const (
	ModeCopy OperationMode = "copy"
	ModeMove OperationMode = "move"
)

// ParseMode accepts "copy" or "move"; empty means move.
func ParseMode(s string) (OperationMode, error) {
	switch OperationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMove:
		return ModeMove, nil
	case ModeCopy:
		return ModeCopy, nil
	}
	return "", fmt.Errorf("unknown operation mode %q (want copy or move)", s)
}

// Executor applies rename operations to the filesystem.
type Executor struct {
	Mode OperationMode
	// OutputDir, when set, receives renamed files instead of their own folder.
	OutputDir     string
	CreateBackups bool
}

// Result represents the outcome of an operation
type Result struct {
	Operation   media.RenameOperation
	Destination string
	Success     bool
	Skipped     bool
	Error       error
	Message     string
}

// Destination returns where op's file ends up.
func (e *Executor) Destination(op media.RenameOperation) string {
	dir := filepath.Dir(filepath.FromSlash(op.OriginalPath))
	if e.OutputDir != "" {
		dir = e.OutputDir
	}
	return filepath.Join(dir, op.NewName)
}

// Execute performs the file operation
func (e *Executor) Execute(op media.RenameOperation, dryRun bool) Result {
	source := filepath.FromSlash(op.OriginalPath)
	dest := e.Destination(op)
	result := Result{Operation: op, Destination: dest}

	if source == dest {
		result.Skipped = true
		result.Success = true
		result.Message = "already named correctly"
		return result
	}

	// In dry-run mode, just report success without checking files
	if dryRun {
		result.Success = true
		result.Message = "dry run - no changes made"
		return result
	}

	if _, err := os.Stat(source); errors.Is(err, os.ErrNotExist) {
		result.Error = fmt.Errorf("source file does not exist: %s: %w", source, media.ErrFileVanished)
		return result
	}

	if _, err := os.Stat(dest); err == nil && !sameFile(source, dest) {
		result.Skipped = true
		result.Success = true
		result.Message = "destination already exists, skipped"
		return result
	}

	destDir := filepath.Dir(dest)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		result.Error = fmt.Errorf("failed to create directory %s: %w", destDir, err)
		return result
	}

	mode := e.Mode
	if mode == "" {
		mode = ModeMove
	}
	var err error
	switch mode {
	case ModeCopy:
		err = copyFile(source, dest)
	case ModeMove:
		err = moveFile(source, dest)
	default:
		err = fmt.Errorf("unknown operation mode: %s", mode)
	}
	if err != nil {
		result.Error = err
		return result
	}

	result.Success = true
	result.Message = fmt.Sprintf("%s completed", mode)

	if e.CreateBackups {
		if err := WriteNote(source, dest, op.Backup); err != nil {
			result.Message += fmt.Sprintf(" (backup note not written: %v)", err)
		}
	}
	return result
}

// sameFile catches case-only renames on case-insensitive filesystems, where
// the destination "exists" because it is the source.
func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// copyFile copies src into a ".partial" sibling of dst and renames it into
// place, so watchers never see a half-written destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	tmp := dst + ".partial"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	_, err = io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, dst)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return nil
}

// moveFile renames src to dst, falling back to copy and delete across
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("verify copy: %w", err)
	}
	if srcInfo.Size() != dstInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy of %s: size mismatch", filepath.Base(src))
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("copied but could not remove source: %w", err)
	}
	return nil
}
