// Package filesystem enumerates and watches local directories.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.FileSource  = (*Connector)(nil)
	_ driven.FileWatcher = (*Connector)(nil)
)

// errClosed is returned when watching on a closed connector.
var errClosed = errors.New("filesystem connector is closed")

// Connector reads files from local disk.
type Connector struct {
	mu       sync.Mutex
	watchers []*fsnotify.Watcher
	closed   bool
}

// New creates a filesystem connector.
func New() *Connector {
	return &Connector{}
}

// Stat describes a single file.
func (c *Connector) Stat(path string) (domain.FileEntry, error) {
	path = ResolvePath(path)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.FileEntry{}, domain.NewNotFoundError(path, nil)
		}
		return domain.FileEntry{}, domain.NewProcessingError("failed to stat "+path, err)
	}
	return domain.FileEntry{
		Path:     path,
		MIMEType: DetectMIMEType(path),
		Size:     info.Size(),
		IsDir:    info.IsDir(),
	}, nil
}

// Walk calls fn for every regular file under root.
// Hidden directories are not descended into; hidden files are passed to fn
// with Hidden set. Unreadable entries are logged and skipped.
func (c *Connector) Walk(ctx context.Context, root string, fn func(domain.FileEntry) error) error {
	root = ResolvePath(root)
	if err := validateRoot(root); err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		hidden := false
		if rel, relErr := filepath.Rel(root, path); relErr == nil && isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			hidden = true
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		return fn(domain.FileEntry{
			Path:     path,
			MIMEType: DetectMIMEType(path),
			Size:     info.Size(),
			Hidden:   hidden,
		})
	})
}

// Watch reports file changes below root until ctx is cancelled.
// Directories created after the watch starts are watched too.
func (c *Connector) Watch(ctx context.Context, root string) (<-chan domain.FileChange, error) {
	root = ResolvePath(root)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errClosed
	}
	c.mu.Unlock()

	if err := validateRoot(root); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addRecursive(watcher, root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = watcher.Close()
		return nil, errClosed
	}
	c.watchers = append(c.watchers, watcher)
	c.mu.Unlock()

	changes := make(chan domain.FileChange)
	go c.watchLoop(ctx, root, watcher, changes)
	return changes, nil
}

func (c *Connector) watchLoop(ctx context.Context, root string, watcher *fsnotify.Watcher, changes chan<- domain.FileChange) {
	defer close(changes)
	defer c.removeWatcher(watcher)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			change, ok := handleFsEvent(watcher, root, event)
			if !ok {
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleFsEvent maps an fsnotify event to a file change.
// New directories are added to the watcher and produce no change.
func handleFsEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event) (domain.FileChange, bool) {
	if rel, err := filepath.Rel(root, event.Name); err == nil && isHidden(rel) {
		return domain.FileChange{}, false
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watcher, event.Name); err != nil {
				logger.Warn("failed to watch %s: %v", event.Name, err)
			}
			return domain.FileChange{}, false
		}
		return domain.FileChange{Type: domain.ChangeCreated, Path: event.Name}, true
	case event.Has(fsnotify.Write):
		return domain.FileChange{Type: domain.ChangeUpdated, Path: event.Name}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.FileChange{Type: domain.ChangeDeleted, Path: event.Name}, true
	default:
		return domain.FileChange{}, false
	}
}

func (c *Connector) removeWatcher(watcher *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.watchers {
		if w == watcher {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			_ = watcher.Close()
			return
		}
	}
}

// Close stops all active watches. Calling Close more than once is safe.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	var errs []error
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}

func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func validateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewNotFoundError(root, nil)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return domain.NewNotFoundError(root, fmt.Errorf("not a directory"))
	}
	return nil
}
