package media

import (
	"fmt"
	"path"
	"strings"
)

// Tokenize splits a file path into parent segments, stem and extension.
// Windows separators are accepted so paths read from a Plex database on
// another machine tokenize the same way.
func Tokenize(p string) (PathInput, error) {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return PathInput{}, fmt.Errorf("tokenize: empty path: %w", ErrInvalidInput)
	}

	normalized := strings.ReplaceAll(trimmed, "\\", "/")
	// Windows long path prefix
	normalized = strings.TrimPrefix(normalized, "//?/")
	cleaned := path.Clean(normalized)

	dir, file := path.Split(cleaned)
	if file == "" || file == "." || file == ".." || file == "/" {
		return PathInput{}, fmt.Errorf("tokenize %q: no filename: %w", p, ErrInvalidInput)
	}

	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	if stem == "" {
		// dotfiles such as ".mkv" have no stem; treat the whole name as the stem
		stem, ext = file, ""
	}

	var segments []string
	for _, part := range strings.Split(dir, "/") {
		if part == "" || part == "." {
			continue
		}
		segments = append(segments, part)
	}

	return PathInput{
		Path:     cleaned,
		Segments: segments,
		Stem:     stem,
		Ext:      ext,
	}, nil
}
