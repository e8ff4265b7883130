package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/taigrr/softrender/pkg/logging"
)

// settle absorbs the burst of events editors emit for a single save.
const settle = 150 * time.Millisecond

// watchedFiles returns the absolute paths whose changes trigger a re-render.
func (o *renderOptions) watchedFiles(model string) map[string]bool {
	files := map[string]bool{}
	for _, p := range []string{model, o.texture, o.configPath} {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			files[abs] = true
		}
	}
	return files
}

// watchLoop re-renders whenever one of the input files is written or
// replaced, until the command context is cancelled. Render errors are
// logged and the loop keeps going.
func (o *renderOptions) watchLoop(cmd *cobra.Command, model string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	files := o.watchedFiles(model)
	dirs := map[string]bool{}
	for f := range files {
		dirs[filepath.Dir(f)] = true
	}
	// Directories, not files, so atomic renames by editors are still seen.
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	log := logging.Logger()
	log.Info("watching for changes", "files", len(files))

	ctx := cmd.Context()
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(settle)
		case <-pending:
			pending = nil
			if err := o.run(cmd, model); err != nil {
				log.Error("re-render failed", "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "err", err)
		}
	}
}
