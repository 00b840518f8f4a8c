package building

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	wferr "github.com/matzehuels/wayfinder/pkg/errors"
)

// Watcher loads a building file and reloads it when the file changes.
// Every successful reload publishes a new Graph snapshot; graphs already
// handed out are never modified.
type Watcher struct {
	path     string
	logger   *log.Logger
	mu       sync.RWMutex
	current  *Graph
	onChange []func(*Graph, Diagnostics)
}

// NewWatcher creates a Watcher and performs the initial load.
// A nil logger falls back to log.Default().
func NewWatcher(path string, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	w := &Watcher{path: filepath.Clean(path), logger: logger}
	g, diags, err := loadNonEmpty(w.path)
	if err != nil {
		return nil, err
	}
	w.logDiagnostics(diags)
	w.current = g
	return w, nil
}

// loadNonEmpty is Load, failing when the document has no nodes at all.
func loadNonEmpty(path string) (*Graph, Diagnostics, error) {
	g, diags, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	if g.NodeCount() == 0 {
		if err := diags.Err(); err != nil {
			return nil, diags, fmt.Errorf("%s: %w", path, err)
		}
		return nil, diags, wferr.New(wferr.ErrCodeMalformedInput, "%s: building has no nodes", path)
	}
	return g, diags, nil
}

// Graph returns the latest snapshot.
func (w *Watcher) Graph() *Graph {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*Graph, Diagnostics)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Reload re-reads the building file immediately. On error the previous
// snapshot stays current. A file that yields no nodes, such as one truncated
// by an editor mid-save, counts as an error.
func (w *Watcher) Reload() (*Graph, error) {
	g, diags, err := loadNonEmpty(w.path)
	if err != nil {
		return nil, err
	}
	w.logDiagnostics(diags)

	w.mu.Lock()
	w.current = g
	callbacks := make([]func(*Graph, Diagnostics), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(g, diags)
	}
	return g, nil
}

// Watch starts a background goroutine that reloads the building on file
// changes. The parent directory is watched so editors that replace the file
// via rename are handled. Call the returned stop function to clean up.
func (w *Watcher) Watch() (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("building watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("building watcher add %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != w.path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if g, err := w.Reload(); err != nil {
						w.logger.Warn("building reload failed; keeping previous snapshot", "path", w.path, "err", err)
					} else {
						w.logger.Info("building reloaded", "path", w.path, "nodes", g.NodeCount(), "edges", g.EdgeCount())
					}
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.logger.Debug("building watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

func (w *Watcher) logDiagnostics(diags Diagnostics) {
	for _, d := range diags {
		w.logger.Warn(d.Message, "code", d.Code, "path", w.path)
	}
}
