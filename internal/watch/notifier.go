// Package watch delivers file-change notifications for transcript files
// under a projects root. It does no deduplication or debouncing: bursts of
// events for the same file are expected, and the consumer reconciles
// idempotently.
package watch

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/getnexar/skynet/internal/scan"
)

// Notifier watches a directory tree and invokes the registered callback
// with the path of every created or modified transcript file. The callback
// runs on the notifier's background goroutine, one event at a time.
type Notifier struct {
	root     string
	onChange func(path string)
	logger   *log.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

func New(root string, onChange func(path string), logger *log.Logger) *Notifier {
	return &Notifier{
		root:     root,
		onChange: onChange,
		logger:   logger,
	}
}

// Start begins watching the root and all existing subdirectories.
// Directories created after Start are picked up from their create events,
// fsnotify watches are not recursive.
func (n *Notifier) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.watcher != nil {
		return nil // already running
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := addTree(w, n.root); err != nil {
		w.Close()
		return err
	}

	n.watcher = w
	n.done = make(chan struct{})
	n.wg.Add(1)
	go n.run(w)
	return nil
}

// Stop terminates the background goroutine and releases the watch handle.
// An in-flight callback is allowed to finish; Stop returns only once no
// callback is running and no further notification will be delivered.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if n.watcher == nil {
		n.mu.Unlock()
		return
	}
	close(n.done)
	n.watcher.Close()
	n.watcher = nil
	n.mu.Unlock()

	n.wg.Wait()
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if info.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func (n *Notifier) run(w *fsnotify.Watcher) {
	defer n.wg.Done()

	for {
		select {
		case <-n.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			n.handle(w, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if err != nil {
				n.logger.Printf("watch: %v", err)
			}
		}
	}
}

func (n *Notifier) handle(w *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		// new project directory: start watching it for transcripts
		if ev.Op&fsnotify.Create != 0 {
			if err := w.Add(ev.Name); err != nil {
				n.logger.Printf("watch %s: %v", ev.Name, err)
			}
		}
		return
	}

	if filepath.Ext(ev.Name) != scan.TranscriptExt {
		return
	}

	// don't start a new delivery once Stop has been requested
	select {
	case <-n.done:
		return
	default:
	}

	n.onChange(ev.Name)
}
