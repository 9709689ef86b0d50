package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/satindergrewal/beatlight/internal/beatmap"
)

// stamp identifies a file version this watcher wrote itself.
type stamp struct {
	size    int64
	modTime time.Time
}

// Watcher relights difficulty documents in a directory whenever they change.
type Watcher struct {
	dir   string
	delay time.Duration

	// OnLight, when set, is called after every relight attempt.
	OnLight func(path string, err error)

	mu         sync.Mutex
	debouncers map[string]func(func())
	written    map[string]stamp
}

// New creates a watcher for dir. Bursts of writes to one file within delay
// collapse into a single relight.
func New(dir string, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Watcher{
		dir:        dir,
		delay:      delay,
		debouncers: make(map[string]func(func())),
		written:    make(map[string]stamp),
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	log.Printf("Watching %s for level changes", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !isBeatmap(ev.Name) {
				continue
			}
			path := ev.Name
			w.debouncer(path)(func() { w.relight(ctx, path) })
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watch error: %v", err)
		}
	}
}

func isBeatmap(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dat") &&
		!beatmap.IsInfoFile(path) &&
		!beatmap.IsTempFile(path)
}

func (w *Watcher) debouncer(path string) func(func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.debouncers[path]
	if !ok {
		d = debounce.New(w.delay)
		w.debouncers[path] = d
	}
	return d
}

func (w *Watcher) relight(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	fi, err := os.Stat(path)
	if err != nil {
		return // removed again before the debounce fired
	}

	w.mu.Lock()
	last, seen := w.written[path]
	w.mu.Unlock()
	if seen && last.size == fi.Size() && last.modTime.Equal(fi.ModTime()) {
		return
	}

	err = beatmap.Relight(path)
	if err != nil {
		log.Printf("Failed to light %s: %v", filepath.Base(path), err)
	} else {
		log.Printf("Lit %s", filepath.Base(path))
		if fi, statErr := os.Stat(path); statErr == nil {
			w.mu.Lock()
			w.written[path] = stamp{size: fi.Size(), modTime: fi.ModTime()}
			w.mu.Unlock()
		}
	}
	if w.OnLight != nil {
		w.OnLight(path, err)
	}
}
