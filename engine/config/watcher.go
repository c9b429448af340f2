package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/kosmos/engine/core"
)

// DebounceInterval groups the burst of events editors produce on save.
var DebounceInterval = 100 * time.Millisecond

// Watch reloads path whenever it changes and sends every configuration that
// parses and validates. Invalid files are logged and skipped. The channel is
// closed when ctx is done. Nothing is applied here; receivers apply the
// configuration on their own goroutine.
func Watch(ctx context.Context, path string) (<-chan *Config, error) {
	path = filepath.Clean(path)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan *Config, 1)
	go func() {
		defer close(out)
		defer w.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != path {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					pending = time.After(DebounceInterval)
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				core.LogError("config watcher: %s", err)

			case <-pending:
				pending = nil
				c, err := Load(path)
				if err != nil {
					core.LogError("config reload rejected: %s", err)
					continue
				}
				core.LogInfo("config %s reloaded", path)
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
