package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/ozansz/agent-sessions/internal/logging"
	"github.com/ozansz/agent-sessions/internal/platform"
)

var watchLog = logging.ForComponent(logging.CompWatch)

// watchDebounce coalesces the burst of writes an agent makes while streaming
// a response into one change notification.
const watchDebounce = 100 * time.Millisecond

// TranscriptWatcher watches the agents' on-disk transcript roots and invokes
// a callback when any of them change, so callers can re-poll immediately
// instead of waiting for the next timer tick. Polling stays the source of
// truth; the watcher only makes it prompter.
type TranscriptWatcher struct {
	roots   []string
	watcher *fsnotify.Watcher

	// limiter caps how often onChange fires even under sustained writes.
	limiter *rate.Limiter

	mu      sync.Mutex
	watched map[string]bool // directories currently registered

	ctx    context.Context
	cancel context.CancelFunc

	onChange func()
}

// NewTranscriptWatcher creates a watcher over the given roots (defaulting to
// the Claude projects directory and the OpenCode storage tree). Call Start in
// a goroutine.
func NewTranscriptWatcher(onChange func(), roots ...string) (*TranscriptWatcher, error) {
	if len(roots) == 0 {
		roots = []string{
			filepath.Join(GetClaudeConfigDir(), "projects"),
			GetOpenCodeStorageDir(),
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create transcript watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TranscriptWatcher{
		roots:    roots,
		watcher:  watcher,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 2),
		watched:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
		onChange: onChange,
	}, nil
}

// Start registers the roots and runs the event loop until Stop is called.
func (w *TranscriptWatcher) Start() {
	for _, root := range w.roots {
		if supported, reason := platform.CheckFsnotifySupport(root); !supported {
			watchLog.Warn("fsnotify_unreliable",
				slog.String("root", root), slog.String("reason", reason))
		}
		w.addTree(root)
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// New project directories appear while we run; watch them too.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addTree(event.Name)
				}
			}

			if !isTranscriptFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, w.notify)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			watchLog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// Stop shuts down the watcher and its event loop.
func (w *TranscriptWatcher) Stop() {
	w.cancel()
	_ = w.watcher.Close()
}

func (w *TranscriptWatcher) notify() {
	if !w.limiter.Allow() {
		return
	}
	if w.onChange != nil {
		w.onChange()
	}
}

// addTree registers root and its subdirectories. fsnotify watches are not
// recursive, and both agents nest their files one or more levels down.
func (w *TranscriptWatcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		w.addDir(path)
		return nil
	})
}

func (w *TranscriptWatcher) addDir(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[dir] {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		watchLog.Debug("watch_add_failed",
			slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}
	w.watched[dir] = true
}

// isTranscriptFile reports whether a changed path is agent transcript data
// worth a re-poll: Claude JSONL logs or OpenCode storage JSON.
func isTranscriptFile(path string) bool {
	switch {
	case strings.HasSuffix(path, ".jsonl"):
		return true
	case strings.HasSuffix(path, ".json"):
		return true
	}
	return false
}
