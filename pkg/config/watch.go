package config

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rtedge/rtedge/pkg/frame"
	"github.com/rtedge/rtedge/pkg/logger"
)

var ErrNoFile = errors.New("no config file")

// Watch calls fn with the new configuration each time the config file of
// the flags changes, until ctx is done. The flags keep overriding the file.
// The parent dir is watched so that files replaced by editors are picked
// up too.
func Watch(ctx context.Context, flags *Flags, fn func(Config), log *logger.Logger) error {
	path := flags.File()
	if path == "" {
		return ErrNoFile
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}
	name := filepath.Clean(path)
	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != name {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				conf, err := flags.Load()
				if err != nil {
					log.Warn().Err(err).Msg("Config reload has failed")
					continue
				}
				log.Info().Str("path", path).Msg("Config reloaded")
				fn(conf)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("Config watch error")
			}
		}
	}()
	return nil
}

// OnModeChange returns a reload callback that calls fn only when the
// reloaded mode differs from the previously loaded one, so that edits of
// other keys keep the mode set at runtime.
func OnModeChange(loaded frame.Mode, fn func(frame.Mode)) func(Config) {
	return func(c Config) {
		if m := c.Mode(); m != loaded {
			loaded = m
			fn(m)
		}
	}
}
