package folio

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gloanda/folio/content"
)

const reloadDebounce = 250 * time.Millisecond

// Collections returns the experiences, projects and certificates currently
// served.
func (a *App) Collections() content.Collections {
	if c := a.collections.Load(); c != nil {
		return *c
	}
	return content.Collections{}
}

// ReloadCollections reads the collections file and swaps it in. On error
// the previous collections stay in place.
func (a *App) ReloadCollections() (content.Collections, error) {
	c, err := content.LoadCollections(a.Config.CollectionsPath)
	if err != nil {
		return content.Collections{}, err
	}
	a.collections.Store(&c)
	return c, nil
}

// WatchCollections reloads the collections file whenever it changes, until
// ctx is cancelled. The parent directory is watched so editors that replace
// the file on save are picked up too. Bursts of events within
// reloadDebounce cause a single reload.
func (a *App) WatchCollections(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	path := filepath.Clean(a.Config.CollectionsPath)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	a.Logger.Info("watching collections", zap.String("path", path))

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			reload = timer.C
		case <-reload:
			reload = nil
			c, err := a.ReloadCollections()
			if err != nil {
				a.Logger.Error("reload collections", zap.Error(err))
				continue
			}
			a.Logger.Info("collections reloaded",
				zap.Int("experiences", len(c.Experiences)),
				zap.Int("projects", len(c.Projects)),
				zap.Int("certificates", len(c.Certificates)),
			)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.Logger.Warn("collections watcher", zap.Error(err))
		}
	}
}
