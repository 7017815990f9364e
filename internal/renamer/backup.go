package renamer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// NoteSuffix is appended to the renamed file's stem to name its backup note.
const NoteSuffix = ".original.txt"

const historyLimit = 10

const (
	keyOriginalName = "Original filename:"
	keyOriginalPath = "Original full path:"
	keyCurrentName  = "Current filename:"
	keyLastRenamed  = "Last renamed on:"
	keyHistory      = "Rename history:"
	keyLegacyTarget = "Renamed to:"
)

// Note is the parsed content of a backup note.
type Note struct {
	OriginalName string
	OriginalPath string
	CurrentName  string
	LastRenamed  string
	History      []string
}

// NotePath returns the note path that belongs to a media file.
func NotePath(filePath string) string {
	ext := filepath.Ext(filePath)
	return strings.TrimSuffix(filePath, ext) + NoteSuffix
}

// HasNote reports whether a backup note exists next to filePath.
func HasNote(filePath string) bool {
	_, err := os.Stat(NotePath(filePath))
	return err == nil
}

// ReadNote parses a backup note.
func ReadNote(path string) (Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Note{}, err
	}

	var (
		n         Note
		inHistory bool
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, keyOriginalName):
			n.OriginalName = value(line, keyOriginalName)
		case strings.HasPrefix(line, keyOriginalPath):
			n.OriginalPath = value(line, keyOriginalPath)
		case strings.HasPrefix(line, keyCurrentName):
			n.CurrentName = value(line, keyCurrentName)
		case strings.HasPrefix(line, keyLegacyTarget) && n.CurrentName == "":
			n.CurrentName = value(line, keyLegacyTarget)
		case strings.HasPrefix(line, keyLastRenamed):
			n.LastRenamed = value(line, keyLastRenamed)
		case strings.HasPrefix(line, keyHistory):
			inHistory = true
		case inHistory && trimmed != "" && !strings.HasPrefix(trimmed, "#"):
			n.History = append(n.History, trimmed)
		}
	}
	if err := sc.Err(); err != nil {
		return Note{}, err
	}
	if n.OriginalName == "" || n.CurrentName == "" {
		return Note{}, fmt.Errorf("%s: invalid backup note format", path)
	}
	return n, nil
}

func value(line, key string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, key))
}

// Render formats the note the way WriteNote stores it.
func (n Note) Render() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s\n", keyOriginalName, n.OriginalName)
	fmt.Fprintf(&b, "%s %s\n", keyOriginalPath, n.OriginalPath)
	fmt.Fprintf(&b, "%s %s\n", keyCurrentName, n.CurrentName)
	fmt.Fprintf(&b, "%s %s\n", keyLastRenamed, n.LastRenamed)
	fmt.Fprintf(&b, "\n%s\n", keyHistory)
	history := n.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, entry := range history {
		fmt.Fprintf(&b, "  %s\n", entry)
	}
	fmt.Fprintf(&b, "\n# To revert: mv '%s' '%s'\n", n.CurrentName, n.OriginalName)
	return b.Bytes()
}

// WriteNote records a rename from oldPath to newPath. When oldPath already had
// a note (the file was renamed before) the very first original name and the
// history carry over, and the stale note is removed once oldPath is gone.
func WriteNote(oldPath, newPath string, b media.BackupNote) error {
	ts := b.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := ts.Format(time.RFC3339)

	n := Note{
		OriginalName: b.OriginalName,
		OriginalPath: b.OriginalPath,
	}
	if n.OriginalName == "" {
		n.OriginalName = filepath.Base(oldPath)
	}
	if n.OriginalPath == "" {
		n.OriginalPath = oldPath
	}
	if abs, err := filepath.Abs(filepath.FromSlash(n.OriginalPath)); err == nil {
		n.OriginalPath = abs
	}

	oldNote := NotePath(oldPath)
	if prev, err := ReadNote(oldNote); err == nil {
		n.OriginalName = prev.OriginalName
		n.OriginalPath = prev.OriginalPath
		n.History = prev.History
	}

	n.CurrentName = filepath.Base(newPath)
	n.LastRenamed = stamp
	n.History = append(n.History, fmt.Sprintf("%s: %s → %s", stamp, filepath.Base(oldPath), n.CurrentName))

	if err := os.WriteFile(NotePath(newPath), n.Render(), 0o644); err != nil {
		return fmt.Errorf("write backup note: %w", err)
	}
	if oldNote != NotePath(newPath) {
		if _, err := os.Stat(oldPath); errors.Is(err, fs.ErrNotExist) {
			_ = os.Remove(oldNote)
		}
	}
	return nil
}

// RevertStatus is the outcome of reverting one note.
type RevertStatus int

const (
	Reverted RevertStatus = iota
	RevertSkipped
	RevertFailed
)

func (s RevertStatus) String() string {
	switch s {
	case Reverted:
		return "reverted"
	case RevertSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// RevertResult describes one note processed by Revert.
type RevertResult struct {
	NotePath string
	From     string
	To       string
	Status   RevertStatus
	Err      error
}

// FindNotes lists every backup note below root, sorted.
func FindNotes(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var notes []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), NoteSuffix) {
			notes = append(notes, path)
		}
		return nil
	})
	sort.Strings(notes)
	return notes, err
}

// RevertNote renames the file described by a note back to its original name
// and deletes the note. The original name is restored in the note's folder.
func RevertNote(notePath string, dryRun bool) RevertResult {
	res := RevertResult{NotePath: notePath}
	n, err := ReadNote(notePath)
	if err != nil {
		res.Status, res.Err = RevertFailed, err
		return res
	}

	dir := filepath.Dir(notePath)
	current := filepath.Join(dir, n.CurrentName)
	original := filepath.Join(dir, n.OriginalName)
	res.From, res.To = current, original

	if _, err := os.Stat(current); err != nil {
		res.Status = RevertFailed
		res.Err = fmt.Errorf("renamed file not found: %s: %w", n.CurrentName, media.ErrFileVanished)
		return res
	}
	if _, err := os.Stat(original); err == nil {
		res.Status = RevertSkipped
		res.Err = fmt.Errorf("original filename already exists: %s", n.OriginalName)
		return res
	}
	if dryRun {
		res.Status = Reverted
		return res
	}

	if err := os.Rename(current, original); err != nil {
		res.Status, res.Err = RevertFailed, err
		return res
	}
	if err := os.Remove(notePath); err != nil {
		res.Err = fmt.Errorf("reverted but could not delete note: %w", err)
	}
	res.Status = Reverted
	return res
}

// Revert processes every note below root.
func Revert(root string, dryRun bool) ([]RevertResult, error) {
	notes, err := FindNotes(root)
	if err != nil {
		return nil, err
	}
	results := make([]RevertResult, 0, len(notes))
	for _, n := range notes {
		results = append(results, RevertNote(n, dryRun))
	}
	return results, nil
}
