// Package watch reports when an editor saves a note file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet is how long a note must stay unchanged before a save is reported.
const DefaultQuiet = 500 * time.Millisecond

// NoteWatcher calls onSave after the note file is written. The parent
// directory is watched so editors that save by rename are seen too.
type NoteWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	quiet   time.Duration
	onSave  func(path string)
}

func NewNoteWatcher(path string, quiet time.Duration, onSave func(path string)) (*NoteWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve note path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &NoteWatcher{
		watcher: w,
		path:    filepath.Clean(abs),
		quiet:   quiet,
		onSave:  onSave,
	}, nil
}

// Run blocks until ctx is done or the watcher fails.
func (w *NoteWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	settle := newSettleTimer(w.quiet, func() {
		if w.onSave != nil {
			w.onSave(w.path)
		}
	})
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.isSave(event) {
				settle.Touch()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// isSave reports whether event leaves new content at the note path.
// Removes and renames away are followed by a create when the editor is done.
func (w *NoteWatcher) isSave(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create)
}
