package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file into store whenever it is written, created or renamed over, until ctx
// is done. The parent directory is watched so editors that replace the file atomically are handled.
// A file that fails to decode, or was moved away or removed, keeps the previous configuration.
func Watch(ctx context.Context, path string, store *Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				reload(path, store)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Config watcher error", slog.String("path", path), slog.Any("error", err))
			}
		}
	}()

	return nil
}

func reload(path string, store *Store) {
	c, err := decode(path)
	if err != nil {
		slog.Warn("Keeping previous config", slog.String("path", path), slog.Any("error", err))
		return
	}

	store.Swap(c)
	slog.Info("Config reloaded",
		slog.String("path", path),
		slog.String("executable", c.ExecutablePath()),
	)
}
