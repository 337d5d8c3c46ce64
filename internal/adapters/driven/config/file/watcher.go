package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// reloadDebounce coalesces the bursts of events editors emit on save.
const reloadDebounce = 200 * time.Millisecond

// Watcher reloads a PromptStore whenever a prompt file in its directory changes.
type Watcher struct {
	fs      *fsnotify.Watcher
	dir     string
	prompts driven.PromptStore
	// reloaded receives a value after every reload. Used by tests.
	reloaded chan struct{}
}

// NewWatcher watches dir for prompt edits. The directory must exist.
func NewWatcher(dir string, prompts driven.PromptStore) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{fs: w, dir: dir, prompts: prompts}, nil
}

// Run delivers reloads until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !isPromptEvent(ev) {
				continue
			}
			logger.Debug("Prompt file changed: %s (%s)", filepath.Base(ev.Name), ev.Op)
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.prompts.Reload()
			logger.Info("Prompts reloaded from %s", w.dir)
			if w.reloaded != nil {
				select {
				case w.reloaded <- struct{}{}:
				default:
				}
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Prompt watcher: %v", err)
		}
	}
}

func isPromptEvent(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, ".txt") || strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
