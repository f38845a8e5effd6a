// Package storetest provides a behavioural test suite shared by every
// driven.VectorStore implementation.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
)

// Factory returns an empty, uninitialised store. The suite closes it.
type Factory func(t *testing.T) driven.VectorStore

// fixture is a small corpus in three dimensions.
type fixture struct {
	chunk  domain.Chunk
	vector []float32
}

func fixtures() []fixture {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	return []fixture{
		{
			chunk: domain.Chunk{
				ID:        "00000000-0000-0000-0000-000000000001",
				Text:      "installing the tool",
				Timestamp: ts,
				Metadata: domain.Metadata{
					Source: "/docs/guide.md", Title: "guide", FileType: "md",
					Author: "alice", ChunkIndex: 0, Tags: []string{"setup"}, CreatedAt: &created,
				},
			},
			vector: []float32{1, 0, 0},
		},
		{
			chunk: domain.Chunk{
				ID:        "00000000-0000-0000-0000-000000000002",
				Text:      "configuring the tool",
				Timestamp: ts,
				Metadata: domain.Metadata{
					Source: "/docs/guide.md", Title: "guide", FileType: "md", ChunkIndex: 1,
				},
			},
			vector: []float32{0.8, 0.6, 0},
		},
		{
			chunk: domain.Chunk{
				ID:        "00000000-0000-0000-0000-000000000003",
				Text:      "page two of the manual",
				Timestamp: ts,
				Metadata: domain.Metadata{
					Source: "/docs/manual.pdf", Title: "Manual", FileType: "pdf", PageNumber: 2,
				},
			},
			vector: []float32{0, 1, 0},
		},
		{
			chunk: domain.Chunk{
				ID:        "00000000-0000-0000-0000-000000000004",
				Text:      "web page content",
				Timestamp: ts,
				Metadata: domain.Metadata{
					URL: "https://example.com/docs", Title: "Docs", FileType: "html",
				},
			},
			vector: []float32{0, 0, 1},
		},
	}
}

func seed(t *testing.T, ctx context.Context, store driven.VectorStore) {
	t.Helper()
	require.NoError(t, store.Initialize(ctx, 3))

	var (
		embeddings [][]float32
		chunks     []domain.Chunk
	)
	for _, f := range fixtures() {
		embeddings = append(embeddings, f.vector)
		chunks = append(chunks, f.chunk)
	}
	require.NoError(t, store.AddDocuments(ctx, embeddings, chunks))
}

func ids(results []domain.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.ID
	}
	return out
}

// Run exercises the full VectorStore contract.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	open := func(t *testing.T) driven.VectorStore {
		t.Helper()
		store := newStore(t)
		t.Cleanup(func() { _ = store.Close() })
		return store
	}

	t.Run("search ranks by cosine similarity", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		results, err := store.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{Limit: 2})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, []string{fixtures()[0].chunk.ID, fixtures()[1].chunk.ID}, ids(results))
		assert.InDelta(t, 1.0, results[0].Score, 1e-5)
		assert.InDelta(t, 0.8, results[1].Score, 1e-5)
	})

	t.Run("default limit", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		results, err := store.Search(ctx, []float32{1, 1, 1}, domain.SearchOptions{})
		require.NoError(t, err)
		assert.Len(t, results, 4)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
	})

	t.Run("chunk round trip", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		results, err := store.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, results, 1)

		want := fixtures()[0].chunk
		got := results[0].Chunk
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Text, got.Text)
		assert.True(t, want.Timestamp.Equal(got.Timestamp))
		assert.Equal(t, want.Metadata.Source, got.Metadata.Source)
		assert.Equal(t, want.Metadata.Title, got.Metadata.Title)
		assert.Equal(t, want.Metadata.Author, got.Metadata.Author)
		assert.Equal(t, want.Metadata.FileType, got.Metadata.FileType)
		assert.Equal(t, want.Metadata.Tags, got.Metadata.Tags)
		require.NotNil(t, got.Metadata.CreatedAt)
		assert.True(t, want.Metadata.CreatedAt.Equal(*got.Metadata.CreatedAt))
	})

	t.Run("page number survives storage", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		results, err := store.Search(ctx, []float32{0, 1, 0}, domain.SearchOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 2, results[0].Chunk.Metadata.PageNumber)
	})

	t.Run("filters", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		tests := []struct {
			name   string
			filter domain.Filter
			want   []string
		}{
			{"by source", domain.Filter{"source": "/docs/manual.pdf"}, []string{fixtures()[2].chunk.ID}},
			{"by url source key", domain.Filter{"source": "https://example.com/docs"}, []string{fixtures()[3].chunk.ID}},
			{"by file type", domain.Filter{"file_type": "md"}, []string{fixtures()[0].chunk.ID, fixtures()[1].chunk.ID}},
			{"by page number", domain.Filter{"page_number": 2}, []string{fixtures()[2].chunk.ID}},
			{"by nested metadata", domain.Filter{"metadata.author": "alice"}, []string{fixtures()[0].chunk.ID}},
			{"conjunction", domain.Filter{"source": "/docs/guide.md", "metadata.chunk_index": 1}, []string{fixtures()[1].chunk.ID}},
			{"no match", domain.Filter{"source": "/nope"}, []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				results, err := store.Search(ctx, []float32{1, 0.1, 0}, domain.SearchOptions{Limit: 10, Filters: tt.filter})
				require.NoError(t, err)
				assert.Equal(t, tt.want, ids(results))
			})
		}
	})

	t.Run("min score", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		results, err := store.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{Limit: 10, MinScore: 0.5})
		require.NoError(t, err)
		assert.Equal(t, []string{fixtures()[0].chunk.ID, fixtures()[1].chunk.ID}, ids(results))
		for _, r := range results {
			assert.GreaterOrEqual(t, r.Score, 0.5)
		}
	})

	t.Run("list sources", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Initialize(ctx, 3))

		sources, err := store.ListSources(ctx)
		require.NoError(t, err)
		assert.Empty(t, sources)

		seed(t, ctx, store)
		sources, err = store.ListSources(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/docs/guide.md", "/docs/manual.pdf", "https://example.com/docs"}, sources)
	})

	t.Run("delete by source", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		n, err := store.DeleteDocuments(ctx, domain.Filter{"source": "/docs/guide.md"})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		sources, err := store.ListSources(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"/docs/manual.pdf", "https://example.com/docs"}, sources)

		results, err := store.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{Limit: 10})
		require.NoError(t, err)
		assert.NotContains(t, ids(results), fixtures()[0].chunk.ID)

		n, err = store.DeleteDocuments(ctx, domain.Filter{"source": "/docs/guide.md"})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete rejects empty filter", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		_, err := store.DeleteDocuments(ctx, domain.Filter{})
		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("add document and upsert", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Initialize(ctx, 3))

		chunk := fixtures()[0].chunk
		require.NoError(t, store.AddDocument(ctx, []float32{1, 0, 0}, chunk))
		chunk.Text = "replaced text"
		require.NoError(t, store.AddDocument(ctx, []float32{1, 0, 0}, chunk))

		results, err := store.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{Limit: 10})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "replaced text", results[0].Chunk.Text)
	})

	t.Run("reinitialise", func(t *testing.T) {
		store := open(t)
		seed(t, ctx, store)

		require.NoError(t, store.Initialize(ctx, 3))
		sources, err := store.ListSources(ctx)
		require.NoError(t, err)
		assert.Len(t, sources, 3, "same dimension keeps data")

		require.NoError(t, store.Initialize(ctx, 4))
		sources, err = store.ListSources(ctx)
		require.NoError(t, err)
		assert.Empty(t, sources, "new dimension recreates the collection")

		_, err = store.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{})
		assert.Error(t, err, "old-dimension query is rejected")
	})

	t.Run("invalid input", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Initialize(ctx, 3))

		err := store.AddDocuments(ctx, [][]float32{{1, 0, 0}}, nil)
		var se *domain.StorageError
		assert.ErrorAs(t, err, &se)

		err = store.AddDocument(ctx, []float32{1, 0}, fixtures()[0].chunk)
		assert.ErrorAs(t, err, &se)

		assert.Error(t, store.Initialize(ctx, 0))
	})

	t.Run("large batch", func(t *testing.T) {
		store := open(t)
		require.NoError(t, store.Initialize(ctx, 3))

		const n = 250
		embeddings := make([][]float32, n)
		chunks := make([]domain.Chunk, n)
		for i := range n {
			embeddings[i] = []float32{1, float32(i), 0}
			chunks[i] = domain.Chunk{
				ID:        uuidFor(i),
				Text:      "bulk",
				Timestamp: time.Now().UTC(),
				Metadata:  domain.Metadata{Source: "/bulk.txt", ChunkIndex: i},
			}
		}
		require.NoError(t, store.AddDocuments(ctx, embeddings, chunks))

		deleted, err := store.DeleteDocuments(ctx, domain.Filter{"source": "/bulk.txt"})
		require.NoError(t, err)
		assert.Equal(t, n, deleted)
	})
}

func uuidFor(i int) string {
	return fmt.Sprintf("10000000-0000-0000-0000-%012x", i)
}
