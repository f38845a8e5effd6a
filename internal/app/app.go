// Package app assembles the ragdocs adapters into a running retrieval service.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/ragdocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdocs/internal/adapters/driven/storage"
	"github.com/custodia-labs/ragdocs/internal/chunking"
	"github.com/custodia-labs/ragdocs/internal/connectors/filesystem"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/core/services"
	"github.com/custodia-labs/ragdocs/internal/logger"
	"github.com/custodia-labs/ragdocs/internal/processors"
	"github.com/custodia-labs/ragdocs/internal/processors/docx"
	"github.com/custodia-labs/ragdocs/internal/processors/pdf"
	"github.com/custodia-labs/ragdocs/internal/processors/text"
	"github.com/custodia-labs/ragdocs/internal/processors/web"
)

// App holds the wired retrieval pipeline and the resources it owns.
type App struct {
	Retrieval *services.RetrievalService
	Watcher   driven.FileWatcher

	embedder driven.EmbeddingService
	store    driven.VectorStore
	files    *filesystem.Connector
}

// NewSettingsService opens the config file in configDir, or the default
// directory when configDir is empty.
func NewSettingsService(configDir string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// NewProcessorRegistry builds the processors in selection order:
// web pages first, then PDF and Word documents, then the text allow-list.
func NewProcessorRegistry(p domain.ProcessingSettings) (*processors.Registry, error) {
	chunkers := chunking.NewRegistry()

	words, err := chunkers.Build(chunking.PolicyWords, map[string]any{"max_size": p.MaxChunkSize})
	if err != nil {
		return nil, err
	}
	fixed, err := chunkers.Build(chunking.PolicyFixed, map[string]any{"chunk_size": p.WebChunkSize})
	if err != nil {
		return nil, err
	}

	var webOpts []web.Option
	if p.MaxFileSize > 0 {
		webOpts = append(webOpts, web.WithMaxBytes(p.MaxFileSize))
	}
	textOpts := []text.Option{text.WithMaxFileSize(p.MaxFileSize)}
	if len(p.SupportedFileTypes) > 0 {
		textOpts = append(textOpts, text.WithExtensions(p.SupportedFileTypes))
	}

	return processors.NewRegistry(
		web.New(fixed, webOpts...),
		pdf.New(words),
		docx.New(words),
		text.New(words, textOpts...),
	), nil
}

// Build connects the embedding provider and vector store described by
// settings and prepares the collection. The caller must Close the App.
func Build(ctx context.Context, settings *domain.AppSettings) (*App, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings are required", domain.ErrInvalidInput)
	}

	registry, err := NewProcessorRegistry(settings.Processing)
	if err != nil {
		return nil, fmt.Errorf("build processors: %w", err)
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewVectorStore(settings.Store)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	files := filesystem.New()
	a := &App{
		Watcher:  files,
		embedder: embedder,
		store:    store,
		files:    files,
	}
	a.Retrieval = services.NewRetrievalService(embedder, store, registry, files,
		services.WithMaxFileSize(settings.Processing.MaxFileSize))

	if err := a.Retrieval.Initialize(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Info("Using %s embeddings (%s) with %s store",
		settings.Embedding.Provider, embedder.ModelName(), settings.Store.Backend)
	return a, nil
}

// Close releases the watcher, store and embedding client.
func (a *App) Close() error {
	var errs []error
	if a.files != nil {
		errs = append(errs, a.files.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	return errors.Join(errs...)
}
