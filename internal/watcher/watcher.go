// Package watcher monitors a design workspace for new trajectory
// artifacts. A long design run drops PDB files into the category
// directories as it goes; the watcher surfaces those arrivals so a
// terminal session or dashboard can follow progress without polling.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taejun-song/bindcraft-nhej/internal/workspace"
)

// ArtifactCallback is called when new PDB files land in a workspace
// category. Names are trajectory names with the .pdb suffix stripped.
type ArtifactCallback func(category workspace.Category, names []string)

// ArtifactWatcher monitors workspace category directories for new PDBs
type ArtifactWatcher struct {
	watcher  *fsnotify.Watcher
	callback ArtifactCallback
	debounce time.Duration

	// Watched category directories, keyed by absolute path
	categories map[string]workspace.Category

	// Debounce state, tracked per category
	pendingByCategory map[workspace.Category]map[string]struct{}
	timer             *time.Timer
	mu                sync.Mutex

	cancel context.CancelFunc
}

// New creates a watcher over the given workspace's trajectory and
// review directories. Directories that do not exist yet are skipped;
// call AddWorkspace again after workspace.Create to pick them up.
func New(callback ArtifactCallback) (*ArtifactWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &ArtifactWatcher{
		watcher:           fsw,
		callback:          callback,
		debounce:          500 * time.Millisecond, // Debounce rapid writes
		categories:        make(map[string]workspace.Category),
		pendingByCategory: make(map[workspace.Category]map[string]struct{}),
	}

	return w, nil
}

// watchedCategories are the directories that receive trajectory PDBs
// during a run, plus the review directories that humans sort into.
var watchedCategories = []workspace.Category{
	workspace.Trajectory,
	workspace.TrajectoryRelaxed,
	workspace.TrajectoryLowConfidence,
	workspace.TrajectoryClashing,
	workspace.Accepted,
	workspace.Rejected,
}

// AddWorkspace starts watching a workspace's artifact directories
func (w *ArtifactWatcher) AddWorkspace(ws *workspace.Workspace) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, c := range watchedCategories {
		dir := ws.Path(c)
		if _, watched := w.categories[dir]; watched {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		w.categories[dir] = c
	}
	return nil
}

// RemoveWorkspace stops watching a workspace
func (w *ArtifactWatcher) RemoveWorkspace(ws *workspace.Workspace) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, c := range watchedCategories {
		dir := ws.Path(c)
		if _, watched := w.categories[dir]; !watched {
			continue
		}
		w.watcher.Remove(dir)
		delete(w.categories, dir)
	}
}

// Start begins watching for new artifacts
func (w *ArtifactWatcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(event)
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				// Keep watching through transient errors
			}
		}
	}()
}

// Stop stops the watcher
func (w *ArtifactWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
}

func (w *ArtifactWatcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".pdb") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	category, ok := w.categories[filepath.Dir(event.Name)]
	if !ok {
		return
	}

	name := strings.TrimSuffix(filepath.Base(event.Name), ".pdb")
	if w.pendingByCategory[category] == nil {
		w.pendingByCategory[category] = make(map[string]struct{})
	}
	w.pendingByCategory[category][name] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *ArtifactWatcher) flush() {
	w.mu.Lock()
	pending := w.pendingByCategory
	w.pendingByCategory = make(map[workspace.Category]map[string]struct{})
	w.mu.Unlock()

	if w.callback == nil {
		return
	}

	for category, nameSet := range pending {
		names := make([]string, 0, len(nameSet))
		for n := range nameSet {
			names = append(names, n)
		}
		if len(names) > 0 {
			w.callback(category, names)
		}
	}
}

// SetDebounce sets the debounce duration for batching arrivals
func (w *ArtifactWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}
