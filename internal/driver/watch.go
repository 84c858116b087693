package driver

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"quill/internal/mirio"
	"quill/internal/project"
)

// DefaultDebounce groups editor save bursts into one re-check.
const DefaultDebounce = 150 * time.Millisecond

// Watcher re-runs a callback when MIR documents, their sources or
// quill.toml change under the watched directories.
type Watcher struct {
	w        *fsnotify.Watcher
	debounce time.Duration
	errs     chan error
}

// NewWatcher watches the directories containing paths (directories are
// watched themselves).
func NewWatcher(paths []string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	for _, dir := range watchDirs(paths) {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close() //nolint:errcheck // the add error wins
			return nil, err
		}
	}
	return &Watcher{w: fw, debounce: debounce, errs: make(chan error, 1)}, nil
}

// Errors reports watcher failures; it is never closed.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the underlying notifier.
func (w *Watcher) Close() error { return w.w.Close() }

// Run blocks until ctx is done, calling onChange once per burst of
// relevant events with the sorted changed paths.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errs <- err:
			default:
			}
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			onChange(changed)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if base == project.ManifestName || mirio.IsMIRFile(ev.Name) {
		return true
	}
	// исходники, на которые ссылаются документы
	return filepath.Ext(base) != "" && base[0] != '.'
}

// watchDirs lists the directories to register. fsnotify does not recurse,
// so a directory input contributes every directory holding a document.
func watchDirs(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var dirs []string
	add := func(dir string) {
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(filepath.Dir(p))
			continue
		}
		add(p)
		files, err := project.CollectInputs(p)
		if err != nil {
			continue
		}
		for _, f := range files {
			add(filepath.Dir(f))
		}
	}
	sort.Strings(dirs)
	return dirs
}
