package media

import "errors"

// Per-file conditions. None of them aborts a batch; callers test with errors.Is.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrPatternMismatch        = errors.New("pattern mismatch")
	ErrCatalogMiss            = errors.New("no catalog match")
	ErrFileVanished           = errors.New("file vanished")
	ErrProberUnavailable      = errors.New("prober unavailable")
	ErrAmbiguousEpisodeFolder = errors.New("season folder without episode number")
)

// IsWarning reports whether err only degrades the result instead of failing the file.
func IsWarning(err error) bool {
	return errors.Is(err, ErrPatternMismatch) ||
		errors.Is(err, ErrProberUnavailable) ||
		errors.Is(err, ErrAmbiguousEpisodeFolder)
}
