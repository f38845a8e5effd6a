// Package storage selects the vector store backend from settings.
package storage

import (
	"fmt"

	"github.com/custodia-labs/ragdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdocs/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/ragdocs/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// NewVectorStore creates the vector store configured in settings.
// An empty backend selects Qdrant.
func NewVectorStore(settings domain.StoreSettings) (driven.VectorStore, error) {
	backend := settings.Backend
	if backend == "" {
		backend = domain.StoreQdrant
	}
	logger.Debug("storage: using %s backend", backend)

	switch backend {
	case domain.StoreQdrant:
		store, err := qdrant.NewStore(settings.Qdrant)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.StoreSQLite:
		store, err := sqlite.NewStore(settings.DataDir, settings.Qdrant.Collection)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.StoreMemory:
		return memory.NewVectorStore(), nil
	default:
		return nil, domain.NewStorageError(fmt.Sprintf("unsupported store backend %q", backend), domain.ErrInvalidInput)
	}
}
