// Package watch extracts estimates as they appear in a directory tree.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/smeta/internal/config"
	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/extract"
	"github.com/dgallion1/smeta/internal/parser"
	"github.com/dgallion1/smeta/internal/verify"
)

// Result is the outcome for one changed file.
type Result struct {
	Path     string
	Estimate *estimate.Estimate
	Checks   []verify.Check
	Attempts uint
	Err      error
}

// Watcher reports every created or rewritten estimate file under a root once
// writes to it have been quiet for the debounce period.
type Watcher struct {
	fsw       *fsnotify.Watcher
	root      string
	match     *Matcher
	extractor *extract.Extractor
	log       *slog.Logger

	debounce time.Duration
	attempts uint
	delay    time.Duration
}

func New(root string, cfg config.Config, extractor *extract.Extractor, log *slog.Logger) (*Watcher, error) {
	m, err := NewMatcher(cfg.Watch.Include)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:       fsw,
		root:      root,
		match:     m,
		extractor: extractor,
		log:       log.With("root", root),
		debounce:  cfg.Watch.Debounce,
		attempts:  cfg.Retry.Attempts,
		delay:     cfg.Retry.Delay,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers results to handle until ctx is cancelled. handle is called from
// the Run goroutine, one file at a time, in path order per batch.
func (w *Watcher) Run(ctx context.Context, handle func(Result)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn("watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.wants(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			for _, path := range drain(pending) {
				if ctx.Err() != nil {
					return nil
				}
				handle(w.Process(ctx, path))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

// Process extracts one file. A file that is not yet well-formed is usually
// still being written, so syntax errors are retried.
func (w *Watcher) Process(ctx context.Context, path string) Result {
	res := Result{Path: path}
	est, err := retry.DoWithData(
		func() (*estimate.Estimate, error) {
			res.Attempts++
			return w.extractor.ParseFile(path)
		},
		retry.Context(ctx),
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(parser.IsSyntax),
		retry.OnRetry(func(n uint, err error) {
			w.log.Debug("retrying parse", "file", path, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		w.log.Error("extraction failed", "file", path, "attempts", res.Attempts, "error", err)
		res.Err = err
		return res
	}

	res.Estimate = est
	res.Checks, res.Err = verify.Run(est)
	return res
}

func (w *Watcher) wants(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	return w.match.Match(rel)
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			w.log.Warn("skip unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func drain(pending map[string]struct{}) []string {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
		delete(pending, p)
	}
	sort.Strings(paths)
	return paths
}
