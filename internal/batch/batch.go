// Package batch drives identification and renaming over a directory tree.
//
// Files are processed one at a time. After each pass the tree is discovered
// again so names produced by earlier renames are seen, but a path processed
// once (or produced by this run) is never processed twice.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/trentmillar/plex-file-namer/internal/database"
	"github.com/trentmillar/plex-file-namer/internal/media"
	"github.com/trentmillar/plex-file-namer/internal/pipeline"
	"github.com/trentmillar/plex-file-namer/internal/renamer"
)

// LockName is the run lock created in the batch root.
const LockName = ".plex-file-namer.lock"

// ErrLocked means another renaming run holds the tree.
var ErrLocked = errors.New("another rename run is active on this tree")

// Identifier turns one path into a rename operation.
type Identifier interface {
	Identify(ctx context.Context, path string) (pipeline.Outcome, error)
}

// Decision is a confirmer's answer for one file.
type Decision int

const (
	DecisionNo Decision = iota
	DecisionYes
	// DecisionAll accepts this file and every following one.
	DecisionAll
	// DecisionQuit declines this file and stops the run.
	DecisionQuit
)

// Confirmer asks whether a planned rename should be executed.
type Confirmer interface {
	Confirm(ctx context.Context, planned Result) (Decision, error)
}

// Journal records executed renames.
type Journal interface {
	Record(ctx context.Context, e database.JournalEntry) error
}

// Status is the per-file outcome.
type Status int

const (
	StatusPlanned Status = iota
	StatusRenamed
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPlanned:
		return "planned"
	case StatusRenamed:
		return "renamed"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result is what happened to one file.
type Result struct {
	Path        string
	Size        int64
	Status      Status
	Outcome     pipeline.Outcome
	Destination string
	Message     string
	Err         error
}

// Summary collects a run's results.
type Summary struct {
	RunID   string
	Results []Result
	// Passes is the number of discovery passes that processed files.
	Passes int
	// Stopped is set when the confirmer asked to quit.
	Stopped bool
}

// Count returns how many results have status s.
func (s Summary) Count(st Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}

// Planned returns the planned results in order.
func (s Summary) Planned() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status == StatusPlanned {
			out = append(out, r)
		}
	}
	return out
}

// Options control a run.
type Options struct {
	// Extensions selects the files discovery picks up.
	Extensions []string
	// Execute renames files; otherwise every identified file is only planned.
	Execute bool
	// SkipFormatted skips files whose names are already in the canonical form.
	SkipFormatted bool
	Executor      *renamer.Executor
}

// Driver runs batches.
type Driver struct {
	identifier Identifier
	confirmer  Confirmer
	journal    Journal
	observe    func(Result)
	opts       Options
	exts       map[string]struct{}
	runID      string
	logger     *slog.Logger
}

// New builds a driver. A nil executor renames in place with backup notes.
func New(id Identifier, opts Options, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Executor == nil {
		opts.Executor = &renamer.Executor{Mode: renamer.ModeMove, CreateBackups: true}
	}
	runID := uuid.NewString()
	return &Driver{
		identifier: id,
		opts:       opts,
		exts:       ExtensionSet(opts.Extensions),
		runID:      runID,
		logger:     logger.With("run_id", runID),
	}
}

// WithConfirmer asks c before each rename. Without one every rename proceeds.
func (d *Driver) WithConfirmer(c Confirmer) *Driver {
	d.confirmer = c
	return d
}

// WithJournal records executed renames in j.
func (d *Driver) WithJournal(j Journal) *Driver {
	d.journal = j
	return d
}

// WithObserver calls fn with every result as soon as it is known.
func (d *Driver) WithObserver(fn func(Result)) *Driver {
	d.observe = fn
	return d
}

// RunID identifies this driver's renames in the journal.
func (d *Driver) RunID() string { return d.runID }

// Extensions returns the normalized extension set.
func (d *Driver) Extensions() map[string]struct{} { return d.exts }

// Run processes every video file below root, re-discovering after each pass.
// The pass count is capped at the size of the first discovery plus one.
func (d *Driver) Run(ctx context.Context, root string) (Summary, error) {
	summary := Summary{RunID: d.runID}

	if d.opts.Execute {
		unlock, err := acquireLock(root)
		if err != nil {
			return summary, err
		}
		defer unlock()
	}

	first, err := Discover(root, d.exts)
	if err != nil {
		return summary, err
	}
	d.logger.Info("discovered video files", "root", root, "count", len(first))

	st := newRunState()
	for _, p := range first {
		st.discovered[p] = true
	}

	queue := first
	limit := len(first) + 1
	for pass := 0; pass < limit && len(queue) > 0; pass++ {
		summary.Passes++
		stop, err := d.processAll(ctx, queue, st, &summary)
		if err != nil || stop {
			return summary, err
		}

		next, err := Discover(root, d.exts)
		if err != nil {
			return summary, err
		}
		queue = nil
		for _, p := range next {
			st.discovered[p] = true
			if !st.processed[p] {
				queue = append(queue, p)
			}
		}
		if len(queue) > 0 {
			d.logger.Debug("new files appeared", "count", len(queue), "pass", pass+1)
		}
	}
	if len(queue) > 0 {
		d.logger.Warn("pass limit reached, files left unprocessed", "count", len(queue), "limit", limit)
	}
	return summary, nil
}

// RunFiles processes an explicit file list once, without discovery or a run
// lock. Missing files are reported as invalid input.
func (d *Driver) RunFiles(ctx context.Context, paths []string) (Summary, error) {
	summary := Summary{RunID: d.runID, Passes: 1}
	st := newRunState()
	clean := make([]string, 0, len(paths))
	for _, p := range paths {
		clean = append(clean, filepath.Clean(p))
	}
	_, err := d.processAll(ctx, clean, st, &summary)
	return summary, err
}

// Process handles one file that was just seen on disk, as watch mode does.
func (d *Driver) Process(ctx context.Context, path string) (Result, error) {
	res, _, err := d.process(ctx, filepath.Clean(path), true, true)
	return res, err
}

type runState struct {
	discovered map[string]bool
	processed  map[string]bool
	acceptAll  bool
}

func newRunState() *runState {
	return &runState{discovered: map[string]bool{}, processed: map[string]bool{}}
}

func (d *Driver) processAll(ctx context.Context, paths []string, st *runState, summary *Summary) (bool, error) {
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return true, err
		}
		if st.processed[p] {
			continue
		}
		st.processed[p] = true

		res, decision, err := d.process(ctx, p, st.discovered[p], !st.acceptAll)
		if err != nil {
			return true, err
		}
		if res.Destination != "" {
			st.processed[filepath.Clean(res.Destination)] = true
		}
		summary.Results = append(summary.Results, res)
		if d.observe != nil {
			d.observe(res)
		}

		switch decision {
		case DecisionAll:
			st.acceptAll = true
		case DecisionQuit:
			summary.Stopped = true
			return true, nil
		}
	}
	return false, nil
}

// process runs one file. The returned error is fatal to the run and only
// comes from the confirmer or a cancelled context.
func (d *Driver) process(ctx context.Context, path string, seen, confirm bool) (Result, Decision, error) {
	res := Result{Path: path}
	logger := d.logger.With("path", path)

	presence := Check(path, seen)
	if presence != Present {
		res.Err = presenceError(path, presence)
		if presence == Vanished {
			res.Status, res.Message = StatusSkipped, "file vanished"
		} else {
			res.Status, res.Message = StatusFailed, "file not found"
		}
		logger.Warn("file unavailable", "presence", presence.String())
		return res, DecisionYes, nil
	}
	if info, err := os.Stat(path); err == nil {
		res.Size = info.Size()
	}

	if d.opts.SkipFormatted && d.alreadyFormatted(path) {
		res.Status, res.Message = StatusSkipped, "already formatted"
		logger.Debug("skipping formatted file")
		return res, DecisionYes, nil
	}

	out, err := d.identifier.Identify(ctx, path)
	res.Outcome = out
	if err != nil {
		if ctx.Err() != nil {
			return res, DecisionQuit, ctx.Err()
		}
		res.Status, res.Err, res.Message = StatusFailed, err, "identification failed"
		logger.Warn("identification failed", "error", err)
		return res, DecisionYes, nil
	}
	for _, w := range out.Warnings {
		if media.IsWarning(w) {
			logger.Debug("identification degraded", "warning", w)
			continue
		}
		logger.Warn("identification warning", "warning", w)
	}

	res.Destination = d.opts.Executor.Destination(out.Operation)
	if filepath.Clean(res.Destination) == path {
		res.Status, res.Message = StatusSkipped, "already named correctly"
		return res, DecisionYes, nil
	}
	if !d.opts.Execute {
		res.Status = StatusPlanned
		return res, DecisionYes, nil
	}
	if _, err := os.Stat(res.Destination); err == nil && !strings.EqualFold(res.Destination, path) {
		res.Status, res.Message = StatusSkipped, "destination already exists"
		logger.Info("destination exists, skipping", "destination", res.Destination)
		return res, DecisionYes, nil
	}

	decision := DecisionYes
	if confirm && d.confirmer != nil {
		decision, err = d.confirmer.Confirm(ctx, res)
		if err != nil {
			return res, DecisionQuit, fmt.Errorf("confirm %s: %w", path, err)
		}
		if decision == DecisionNo || decision == DecisionQuit {
			res.Status, res.Message = StatusSkipped, "declined"
			return res, decision, nil
		}
	}

	exec := d.opts.Executor.Execute(out.Operation, false)
	res.Destination, res.Message = exec.Destination, exec.Message
	switch {
	case exec.Error != nil:
		res.Status, res.Err = StatusFailed, exec.Error
		logger.Error("rename failed", "error", exec.Error)
	case exec.Skipped:
		res.Status = StatusSkipped
	default:
		res.Status = StatusRenamed
		logger.Info("renamed", "destination", exec.Destination, "mode", string(d.opts.Executor.Mode))
	}
	d.record(ctx, res)
	return res, decision, nil
}

// alreadyFormatted needs a backup note too, unless backups are off, so a
// file that merely looks canonical is still checked once.
func (d *Driver) alreadyFormatted(path string) bool {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !renamer.IsFormatted(stem) {
		return false
	}
	return renamer.HasNote(path) || !d.opts.Executor.CreateBackups
}

func (d *Driver) record(ctx context.Context, res Result) {
	if d.journal == nil {
		return
	}
	entry := database.JournalEntry{
		RunID:        d.runID,
		OperationID:  res.Outcome.Operation.ID,
		OriginalPath: res.Path,
		NewPath:      res.Destination,
		Mode:         string(d.opts.Executor.Mode),
		Message:      res.Message,
	}
	switch res.Status {
	case StatusRenamed:
		entry.Status = database.JournalRenamed
	case StatusSkipped:
		entry.Status = database.JournalSkipped
	default:
		entry.Status = database.JournalFailed
		if res.Err != nil {
			entry.Message = res.Err.Error()
		}
	}
	if err := d.journal.Record(ctx, entry); err != nil {
		d.logger.Warn("journal write failed", "path", res.Path, "error", err)
	}
}

// acquireLock takes the run lock in root (or root's folder for a file root).
func acquireLock(root string) (func(), error) {
	dir := root
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		dir = filepath.Dir(root)
	}
	lock := flock.New(filepath.Join(dir, LockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}
	return func() { _ = lock.Unlock() }, nil
}
