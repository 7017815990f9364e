package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/trentmillar/plex-file-namer/internal/media"
)

// DefaultExtensions are the video containers picked up by discovery.
var DefaultExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm",
	".m4v", ".mpg", ".mpeg", ".3gp", ".3g2", ".ts", ".mts",
	".m2ts", ".vob", ".ogv", ".divx", ".xvid", ".rm", ".rmvb",
}

// ExtensionSet normalizes extensions to lowercase with a leading dot.
// An empty list selects DefaultExtensions.
func ExtensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}

// IsVideo reports whether path has one of the extensions in set.
func IsVideo(path string, set map[string]struct{}) bool {
	_, ok := set[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Discover lists video files at root. A file root yields itself when it is a
// video; a directory is walked recursively. Unreadable subdirectories are
// skipped, the rest of the tree is still listed.
func Discover(root string, set map[string]struct{}) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("path does not exist: %s: %w", root, media.ErrInvalidInput)
		}
		return nil, err
	}
	if !info.IsDir() {
		if IsVideo(root, set) {
			return []string{filepath.Clean(root)}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !IsVideo(d.Name(), set) {
			return nil
		}
		files = append(files, filepath.Clean(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Presence is the outcome of the per-item existence check.
type Presence int

const (
	Present Presence = iota
	// Vanished files were discovered earlier in the batch and are gone now.
	Vanished
	// NeverExisted files were never seen and are not on disk.
	NeverExisted
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "present"
	case Vanished:
		return "vanished"
	default:
		return "never existed"
	}
}

// Check reports whether path is still a regular file. seen tells whether
// discovery listed it earlier in this batch.
func Check(path string, seen bool) Presence {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return Present
	}
	if seen {
		return Vanished
	}
	return NeverExisted
}

// presenceError maps a missing file to the error reported for it.
func presenceError(path string, p Presence) error {
	switch p {
	case Vanished:
		return fmt.Errorf("%s: %w", path, media.ErrFileVanished)
	case NeverExisted:
		return fmt.Errorf("no such file %s: %w", path, media.ErrInvalidInput)
	}
	return nil
}
