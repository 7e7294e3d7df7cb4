package ruleload

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
)

// Watcher reloads a rules file into the store whenever it changes on disk.
// It watches the containing directory rather than the file itself: editors
// that save by rename-replace leave a watch on the old inode dead, while the
// directory keeps reporting events for the path.
type Watcher struct {
	store *rule.Store
	path  string
	log   *slog.Logger
}

// NewWatcher creates a Watcher. It does not perform the initial load; call
// Apply first.
func NewWatcher(store *rule.Store, path string, log *slog.Logger) *Watcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Watcher{store: store, path: path, log: log}
}

// Run watches until the context is canceled. A reload failure keeps the
// previous rules and is only logged.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.log.Info("watching rules file", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if err := Apply(w.store, w.path); err != nil {
				w.log.Warn("rules reload failed, keeping previous rules", "error", err)
				continue
			}
			w.log.Info("rules reloaded", "path", w.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("rules watcher error", "error", err)
		}
	}
}
