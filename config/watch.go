package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/benz9527/xhome/lib/infra"
)

// Watch calls onChange with the reloaded config every time path is written
// or re-created, until ctx is done. It watches the parent directory and
// ignores events of other files.
func Watch(ctx context.Context, path string, onChange func(cfg *Config, err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return infra.WrapErrorStack(err, "create config watcher")
	}
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return infra.WrapErrorStack(err, "watch config directory of "+path)
	}

	target := filepath.Clean(path)
	go func() {
		defer func() {
			_ = watcher.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					onChange(Load(path))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(nil, infra.WrapErrorStack(err, "watch config "+path))
			}
		}
	}()
	return nil
}
