package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kartoza/kartoza-sql-guard/internal/sqlcheck"
)

// DefaultDebounce is how long Watch waits for writes to settle
const DefaultDebounce = 100 * time.Millisecond

// Store holds the current catalog of a file and reloads it on demand or
// when the file changes. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	path     string
	catalog  sqlcheck.Catalog
	logger   *slog.Logger
	debounce time.Duration
}

// NewStore loads path into a new store. A nil logger discards output.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{path: path, logger: logger, debounce: DefaultDebounce}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the watched catalog file
func (s *Store) Path() string {
	return s.path
}

// Get returns the current catalog
func (s *Store) Get() sqlcheck.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Set replaces the in-memory catalog without touching the file
func (s *Store) Set(cat sqlcheck.Catalog) {
	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()
}

// Reload re-reads the file. On error the previous catalog is kept.
func (s *Store) Reload() error {
	cat, err := Load(s.path)
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", s.path, err)
	}
	s.Set(cat)
	s.logger.Debug("catalog loaded", "path", s.path, "tables", len(cat))
	return nil
}

// Watch reloads the catalog whenever its file is written or recreated and
// calls onChange with the outcome. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func(sqlcheck.Catalog, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}

	// Watch the directory so editors that replace the file are noticed
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.debounce, func() {
				s.logger.Debug("catalog file changed, reloading", "file", event.Name)
				err := s.Reload()
				if err != nil {
					s.logger.Error("catalog reload failed", "error", err)
				}
				if onChange != nil {
					onChange(s.Get(), err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
