package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragdocs/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/vectors"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// batchSize is the number of points written per transaction.
const batchSize = 100

// Store is a SQLite-backed vector store holding one named collection.
type Store struct {
	db         *sql.DB
	path       string
	collection string
}

// NewStore opens or creates the database in dataDir.
// If dataDir is empty, defaults to ~/.ragdocs/data/vectors.db.
func NewStore(dataDir, collection string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, domain.NewStorageError("getting home directory", err)
		}
		dataDir = filepath.Join(home, ".ragdocs", "data")
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, domain.NewStorageError("creating data directory", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, domain.NewStorageError("opening database", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		collection: collection,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, domain.NewStorageError("running migrations", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Initialize creates the collection, or recreates it when the stored
// dimension differs.
func (s *Store) Initialize(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.NewStorageError(fmt.Sprintf("invalid vector dimension %d", dimension), domain.ErrInvalidInput)
	}

	current, err := s.dimension(ctx)
	switch {
	case err == nil && current == dimension:
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return domain.NewStorageError("reading collection", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStorageError("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", s.collection); err != nil {
		return domain.NewStorageError("dropping collection", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO collections (name, dimension) VALUES (?, ?)", s.collection, dimension); err != nil {
		return domain.NewStorageError("creating collection", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.NewStorageError("creating collection", err)
	}
	return nil
}

// AddDocument upserts a single chunk.
func (s *Store) AddDocument(ctx context.Context, embedding []float32, chunk domain.Chunk) error {
	return s.AddDocuments(ctx, [][]float32{embedding}, []domain.Chunk{chunk})
}

// AddDocuments upserts chunks, one transaction per batch of 100.
func (s *Store) AddDocuments(ctx context.Context, embeddings [][]float32, chunks []domain.Chunk) error {
	if len(embeddings) != len(chunks) {
		return domain.NewStorageError(
			fmt.Sprintf("got %d embeddings for %d chunks", len(embeddings), len(chunks)), domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return nil
	}

	dimension, err := s.requireDimension(ctx)
	if err != nil {
		return err
	}
	for i, v := range embeddings {
		if len(v) != dimension {
			return domain.NewStorageError(
				fmt.Sprintf("vector %d has dimension %d, collection expects %d", i, len(v), dimension), domain.ErrInvalidInput)
		}
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		if err := s.upsertBatch(ctx, embeddings[start:end], chunks[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertBatch(ctx context.Context, embeddings [][]float32, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStorageError("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO points (id, collection, source, vector, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			source = excluded.source,
			vector = excluded.vector,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return domain.NewStorageError("preparing upsert", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		payload, err := json.Marshal(chunk.Payload())
		if err != nil {
			return domain.NewStorageError("marshalling payload", err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, s.collection, nullString(chunk.Metadata.SourceKey()),
			vectors.Encode(embeddings[i]), string(payload)); err != nil {
			return domain.NewStorageError("saving point "+chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStorageError("committing points", err)
	}
	return nil
}

// Search scans the collection and returns the best-scoring chunks.
// A string "source" filter is pushed down to the index.
func (s *Store) Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	dimension, err := s.requireDimension(ctx)
	if err != nil {
		return nil, err
	}
	if len(query) != dimension {
		return nil, domain.NewStorageError(
			fmt.Sprintf("query has dimension %d, collection expects %d", len(query), dimension), domain.ErrInvalidInput)
	}

	var results []domain.SearchResult
	err = s.scan(ctx, opts.Filters, true, func(id string, vector []float32, payload map[string]any) {
		results = append(results, domain.SearchResult{
			Chunk: domain.ChunkFromPayload(id, payload),
			Score: vectors.Cosine(query, vector),
		})
	})
	if err != nil {
		return nil, err
	}
	return vectors.Rank(results, opts.EffectiveLimit(), opts.MinScore), nil
}

// ListSources returns the sorted distinct source keys.
func (s *Store) ListSources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT source FROM points
		WHERE collection = ? AND source IS NOT NULL AND source != ''
		ORDER BY source
	`, s.collection)
	if err != nil {
		return nil, domain.NewStorageError("querying sources", err)
	}
	defer rows.Close()

	sources := []string{}
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, domain.NewStorageError("scanning source", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterating sources", err)
	}
	return sources, nil
}

// DeleteDocuments removes every point matching filter.
func (s *Store) DeleteDocuments(ctx context.Context, filter domain.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, domain.NewStorageError("refusing to delete with an empty filter", domain.ErrInvalidInput)
	}

	var ids []string
	err := s.scan(ctx, filter, false, func(id string, _ []float32, _ map[string]any) {
		ids = append(ids, id)
	})
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.NewStorageError("beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		batch := ids[start:end]
		args := make([]any, 0, len(batch)+1)
		args = append(args, s.collection)
		for _, id := range batch {
			args = append(args, id)
		}
		query := "DELETE FROM points WHERE collection = ? AND id IN (?" + strings.Repeat(",?", len(batch)-1) + ")"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, domain.NewStorageError("deleting points", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, domain.NewStorageError("committing delete", err)
	}
	return len(ids), nil
}

// scan calls fn for every point of the collection matching filter.
func (s *Store) scan(ctx context.Context, filter domain.Filter, withVectors bool,
	fn func(id string, vector []float32, payload map[string]any)) error {
	query := "SELECT id, payload, vector FROM points WHERE collection = ?"
	if !withVectors {
		query = "SELECT id, payload, NULL FROM points WHERE collection = ?"
	}
	args := []any{s.collection}
	if source, ok := filter[domain.PayloadSource].(string); ok {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.NewStorageError("querying points", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      string
			raw     string
			blob    []byte
			payload map[string]any
		)
		if err := rows.Scan(&id, &raw, &blob); err != nil {
			return domain.NewStorageError("scanning point", err)
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return domain.NewStorageError("unmarshalling payload of "+id, err)
		}
		if !filter.Matches(payload) {
			continue
		}
		var vector []float32
		if withVectors {
			vector = vectors.Decode(blob)
		}
		fn(id, vector, payload)
	}
	if err := rows.Err(); err != nil {
		return domain.NewStorageError("iterating points", err)
	}
	return nil
}

// dimension returns the stored vector size of the collection.
func (s *Store) dimension(ctx context.Context) (int, error) {
	var dimension int
	err := s.db.QueryRowContext(ctx,
		"SELECT dimension FROM collections WHERE name = ?", s.collection).Scan(&dimension)
	return dimension, err
}

func (s *Store) requireDimension(ctx context.Context) (int, error) {
	dimension, err := s.dimension(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.NewStorageError("collection not initialized", domain.NewNotFoundError("collection "+s.collection, nil))
	}
	if err != nil {
		return 0, domain.NewStorageError("reading collection", err)
	}
	return dimension, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_vectors.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck // returning the exec error
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck // returning the insert error
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
