package dataset

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates a Source whenever its file is written, replaced or
// removed. The parent directory is watched so atomic renames are seen.
type Watcher struct {
	source  *Source
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	// OnInvalidate is called after each invalidation; set before Start.
	OnInvalidate func()
}

func NewWatcher(source *Source, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(source.Path())); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(source.Path()), err)
	}
	return &Watcher{
		source:  source,
		watcher: fw,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Watcher) run() {
	defer w.wg.Done()
	target := filepath.Clean(w.source.Path())
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.source.Invalidate()
				w.logger.Info("dataset changed, stats invalidated",
					zap.String("path", target),
					zap.String("op", event.Op.String()))
				if w.OnInvalidate != nil {
					w.OnInvalidate()
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("dataset watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
