package docstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/visproject/internal/storage"
)

// Reloader is a document that can re-read itself from disk.
type Reloader interface {
	Name() string
	Reload() (bool, error)
}

const debounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the data directory and reloads the
// given documents when another process edits them, until ctx is cancelled.
// Events are debounced per document; self-writes are skipped by the
// documents' checksum check.
func Watch(ctx context.Context, dir string, logger *slog.Logger, docs ...Reloader) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	byName := make(map[string]Reloader, len(docs))
	for _, d := range docs {
		byName[d.Name()] = d
	}

	fired := make(chan string, len(docs))
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	schedule := func(name string) {
		if t, ok := timers[name]; ok {
			t.Reset(debounce)
			return
		}
		timers[name] = time.AfterFunc(debounce, func() {
			select {
			case fired <- name:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case name := <-fired:
			changed, err := byName[name].Reload()
			if err != nil {
				logger.Warn("watcher: reload failed", slog.String("file", name), slog.String("error", err.Error()))
				continue
			}
			if changed {
				logger.Debug("watcher: reloaded", slog.String("file", name))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if storage.IsTemp(name) || storage.IsLock(name) {
				continue
			}
			if _, ok := byName[name]; ok {
				schedule(name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
