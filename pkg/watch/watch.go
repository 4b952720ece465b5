// Package watch reruns a function when watched files change.
//
// Editors tend to save with bursts of create, write and rename events, and a
// regeneration writes many files at once, so events are debounced: fn runs
// once after the watched tree has been quiet for [Options.Debounce].
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Options configures Watch.
type Options struct {
	Debounce time.Duration
	Logger   *log.Logger

	// Ignore lists directories whose events are dropped, typically the
	// output directory of a generation run.
	Ignore []string
}

// Watch blocks until ctx is done, calling fn with the sorted, de-duplicated
// paths that changed in each burst of events.
//
// Directories in paths are watched recursively, including directories
// created later. A file path is watched through its parent directory, so
// atomic saves that replace the file are still seen; only events for that
// file are reported. Dot-files are ignored.
func Watch(ctx context.Context, paths []string, opts Options, fn func(changed []string)) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	f := newFilter(opts.Ignore)
	for _, p := range paths {
		if err := f.add(w, p); err != nil {
			return err
		}
	}
	opts.Logger.Debug("watching", "paths", paths, "debounce", opts.Debounce)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(opts.Debounce)
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timerC:
			timerC = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			fn(changed)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Warn("watch error", "err", err)
		case evt, ok := <-w.Events:
			if !ok {
				return nil
			}
			if evt.Op&fsnotify.Create != 0 && f.inTree(evt.Name) {
				if fi, err := os.Stat(evt.Name); err == nil && fi.IsDir() {
					if err := f.addTree(w, evt.Name); err != nil {
						opts.Logger.Warn("watch add failed", "path", evt.Name, "err", err)
					}
				}
			}
			if f.relevant(evt) {
				pending[evt.Name] = true
				resetTimer()
			}
		}
	}
}

// filter decides which events matter.
type filter struct {
	trees  []string        // recursively watched roots
	files  map[string]bool // individually watched files
	ignore []string
}

func newFilter(ignore []string) *filter {
	f := &filter{files: make(map[string]bool)}
	for _, dir := range ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			f.ignore = append(f.ignore, abs)
		}
	}
	return f
}

func (f *filter) add(w *fsnotify.Watcher, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		f.trees = append(f.trees, abs)
		return f.addTree(w, abs)
	}
	f.files[abs] = true
	return w.Add(filepath.Dir(abs))
}

func (f *filter) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || f.ignored(path)) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func (f *filter) inTree(path string) bool {
	for _, root := range f.trees {
		if within(root, path) {
			return true
		}
	}
	return false
}

func (f *filter) ignored(path string) bool {
	for _, dir := range f.ignore {
		if within(dir, path) {
			return true
		}
	}
	return false
}

func (f *filter) relevant(evt fsnotify.Event) bool {
	if evt.Name == "" || evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasPrefix(filepath.Base(evt.Name), ".") || f.ignored(evt.Name) {
		return false
	}
	return f.files[evt.Name] || f.inTree(evt.Name)
}

// within reports whether path is root or below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
