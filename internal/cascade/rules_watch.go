package cascade

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"hrms-backend/internal/shared/telemetry"
)

// WatchRulesFile reloads path into rs whenever it changes until ctx ends.
// A file that fails to parse leaves the previous rules active.
// The parent directory is watched so editor rename-on-save is seen.
func WatchRulesFile(ctx context.Context, path string, rs *RuleSet) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("rules watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	target := filepath.Clean(path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				reloadRules(path, rs)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				telemetry.Warn("cascade.rules_watch_error", map[string]any{"path": path, "error": err})
			}
		}
	}()
	return nil
}

func reloadRules(path string, rs *RuleSet) {
	r, err := LoadRulesFile(path)
	if err != nil {
		telemetry.Warn("cascade.rules_reload_failed", map[string]any{"path": path, "error": err})
		return
	}
	rs.Replace(r)
	telemetry.Info("cascade.rules_reloaded", map[string]any{"path": path})
}
