package patternml

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
)

// ArtifactWatcher hot-reloads the classifier when its artifact file is
// rewritten on disk, so retraining jobs can publish a new model without a
// process restart.
type ArtifactWatcher struct {
	path       string
	classifier *Classifier
	watcher    *fsnotify.Watcher
	logger     logging.Logger
	done       chan struct{}
}

// NewArtifactWatcher starts watching the directory containing path.  The
// directory is watched rather than the file itself because atomic-rename
// publishes (the way SaveArtifact writes) replace the inode the file watch
// would be attached to.
func NewArtifactWatcher(path string, classifier *Classifier, logger logging.Logger) (*ArtifactWatcher, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &ArtifactWatcher{
		path:       path,
		classifier: classifier,
		watcher:    fsWatcher,
		logger:     logger.Named("artifact-watcher"),
		done:       make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *ArtifactWatcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("artifact watch error", logging.Err(err))
		case <-w.done:
			return
		}
	}
}

// reload loads the artifact and swaps it into the classifier.  A corrupt or
// half-published artifact leaves the current model untouched.
func (w *ArtifactWatcher) reload() {
	model, err := LoadArtifact(w.path)
	if err != nil {
		w.logger.Warn("ignoring unloadable artifact", logging.String("path", w.path), logging.Err(err))
		return
	}
	w.classifier.SetModel(model)
	w.logger.Info("classifier reloaded from artifact", logging.String("path", w.path))
}

// Close stops the watcher goroutine and releases the inotify handle.
func (w *ArtifactWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
