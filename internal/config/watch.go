package config

import (
	"log/slog"
	"time"

	"github.com/dshills/listview/internal/config/watcher"
	"github.com/dshills/listview/internal/logging"
)

// Watch reloads the configuration at path whenever the file changes and
// passes the result to onReload. Invalid files are logged and reported with
// a nil Config so the caller can keep its current settings.
func Watch(path string, logger *slog.Logger, onReload func(*Config, error), opts ...LoadOption) (*watcher.Watcher, error) {
	logger = logging.WithComponent(logger, "config")
	w, err := watcher.New(watcher.WithLogger(logger), watcher.WithDebounce(150*time.Millisecond))
	if err != nil {
		return nil, err
	}
	w.OnChange(func(ev watcher.Event) {
		if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
			logger.Info("config file removed; keeping current settings", "path", ev.Path)
			return
		}
		cfg, err := Load(path, opts...)
		if err != nil {
			logger.Warn("config reload failed", "path", ev.Path, "error", err)
			onReload(nil, err)
			return
		}
		logger.Info("config reloaded", "path", ev.Path, "views", len(cfg.Views))
		onReload(cfg, nil)
	})
	if err := w.Watch(path); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}
