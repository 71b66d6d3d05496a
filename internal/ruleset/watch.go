package ruleset

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchHint starts an fsnotify watch on the rules directory that only
// logs when files change — it never reloads automatically. Reload stays
// an explicit operator action (POST /api/v1/alerts/rules/reload); this just shortens
// the feedback loop for someone editing rule files by hand. The watcher
// is closed when stop is closed.
func WatchHint(dir string, logger zerolog.Logger, stop <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn().Err(err).Msg("could not start rules directory watch")
		return
	}
	if err := watcher.Add(dir); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("could not watch rules directory")
		watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					logger.Info().Str("file", event.Name).Msg("rule file changed on disk; call POST /api/v1/alerts/rules/reload to pick it up")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("rules directory watch error")
			case <-stop:
				return
			}
		}
	}()
}
