package driven

import (
	"context"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// FileSource enumerates files on local disk.
type FileSource interface {
	// Stat describes a single file.
	// Returns domain.NotFoundError if the path does not exist.
	Stat(path string) (domain.FileEntry, error)

	// Walk calls fn for every visible regular file under root, in lexical order.
	// Hidden files and directories are not visited.
	// Returns domain.NotFoundError if root is not an existing directory.
	// An error returned by fn stops the walk and is returned.
	Walk(ctx context.Context, root string, fn func(domain.FileEntry) error) error
}

// FileWatcher reports changes below a directory.
type FileWatcher interface {
	// Watch starts watching root recursively.
	// The returned channel is closed when ctx is cancelled.
	Watch(ctx context.Context, root string) (<-chan domain.FileChange, error)

	// Close stops all active watches.
	Close() error
}
