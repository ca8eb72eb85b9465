package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file whenever it is written or replaced and
// hands the validated result to onChange. A reload that fails to decode
// or validate is passed as err with a nil cfg, the previous config stays
// in use by the caller. The watch stops when ctx is done.
//
// The parent directory is watched, editors often replace the file by a
// rename instead of writing it in place.
func Watch(ctx context.Context, path string, onChange func(cfg *Config, err error)) error {
	if onChange == nil {
		return fmt.Errorf("%w: nil config change callback", ErrInvalidConfig)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err = watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return err
	}

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
				if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				cfg, err := Load(abs)
				if err == nil {
					err = cfg.Validate()
				}
				if err != nil {
					onChange(nil, err)
					continue
				}
				onChange(cfg, nil)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(nil, err)
			}
		}
	}()
	return nil
}
