// Package qdrant implements driven.VectorStore on a Qdrant server over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// BatchSize is the number of points sent per upsert request.
const BatchSize = 100

// scrollPageSize is the page size used when enumerating sources.
const scrollPageSize = 256

// pointsClient is the subset of *qdrant.Client used by the store.
type pointsClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	DeleteCollection(ctx context.Context, collectionName string) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Close() error
}

// Store is a Qdrant-backed vector store holding one collection.
type Store struct {
	client     pointsClient
	collection string

	mu        sync.RWMutex
	dimension int
}

// NewStore connects to the server described by settings.
// The URL supplies the host and scheme; https enables TLS.
func NewStore(settings domain.QdrantSettings) (*Store, error) {
	cfg, err := clientConfig(settings)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, domain.NewStorageError("failed to connect to qdrant", err)
	}
	logger.Debug("qdrant: connected to %s:%d (collection %q)", cfg.Host, cfg.Port, settings.Collection)
	return newStore(client, settings.Collection), nil
}

func newStore(client pointsClient, collection string) *Store {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &Store{client: client, collection: collection}
}

func clientConfig(settings domain.QdrantSettings) (*qdrant.Config, error) {
	raw := settings.URL
	if raw == "" {
		raw = domain.DefaultQdrantURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, domain.NewStorageError(fmt.Sprintf("invalid qdrant URL %q", raw), domain.ErrInvalidInput)
	}
	port := settings.GRPCPort
	if port <= 0 {
		port = domain.DefaultQdrantGRPCPort
	}
	return &qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: settings.APIKey,
		UseTLS: u.Scheme == "https",
	}, nil
}

// Collection returns the collection name.
func (s *Store) Collection() string {
	return s.collection
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Initialize creates the collection if needed. An existing collection with
// a different vector size is deleted and recreated empty.
func (s *Store) Initialize(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.NewStorageError(fmt.Sprintf("invalid vector dimension %d", dimension), domain.ErrInvalidInput)
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return wrapError("failed to check collection", err)
	}

	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return wrapError("failed to get collection info", err)
		}
		size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size == uint64(dimension) {
			s.setDimension(dimension)
			return nil
		}
		logger.Info("qdrant: collection %q has dimension %d, recreating with %d", s.collection, size, dimension)
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return wrapError("failed to delete collection", err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return wrapError("failed to create collection", err)
	}

	wait := true
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		Wait:           &wait,
		FieldName:      domain.PayloadSource,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return wrapError("failed to create source index", err)
	}

	s.setDimension(dimension)
	logger.Debug("qdrant: created collection %q (dimension %d)", s.collection, dimension)
	return nil
}

// AddDocument upserts a single chunk.
func (s *Store) AddDocument(ctx context.Context, embedding []float32, chunk domain.Chunk) error {
	return s.AddDocuments(ctx, [][]float32{embedding}, []domain.Chunk{chunk})
}

// AddDocuments upserts chunks in batches of BatchSize.
func (s *Store) AddDocuments(ctx context.Context, embeddings [][]float32, chunks []domain.Chunk) error {
	if len(embeddings) != len(chunks) {
		return domain.NewStorageError(
			fmt.Sprintf("got %d embeddings for %d chunks", len(embeddings), len(chunks)), domain.ErrInvalidInput)
	}
	dimension, err := s.requireDimension()
	if err != nil {
		return err
	}
	for i, v := range embeddings {
		if len(v) != dimension {
			return domain.NewStorageError(
				fmt.Sprintf("vector %d has dimension %d, collection expects %d", i, len(v), dimension), domain.ErrInvalidInput)
		}
	}

	wait := true
	for start := 0; start < len(chunks); start += BatchSize {
		end := min(start+BatchSize, len(chunks))
		points := make([]*qdrant.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunks[i].ID),
				Vectors: qdrant.NewVectors(embeddings[i]...),
				Payload: toPayload(chunks[i].Payload()),
			})
		}
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Wait:           &wait,
			Points:         points,
		})
		if err != nil {
			return wrapError(fmt.Sprintf("failed to upsert batch %d", start/BatchSize), err)
		}
		logger.Debug("qdrant: upserted %d points", len(points))
	}
	return nil
}

// Search runs a filtered nearest-neighbour query.
func (s *Store) Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	dimension, err := s.requireDimension()
	if err != nil {
		return nil, err
	}
	if len(query) != dimension {
		return nil, domain.NewStorageError(
			fmt.Sprintf("query has dimension %d, collection expects %d", len(query), dimension), domain.ErrInvalidInput)
	}
	filter, err := toFilter(opts.Filters)
	if err != nil {
		return nil, err
	}

	limit := uint64(opts.EffectiveLimit())
	req := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Filter:         filter,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if opts.MinScore > 0 {
		threshold := float32(opts.MinScore)
		req.ScoreThreshold = &threshold
	}

	hits, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, wrapError("failed to search", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.SearchResult{
			Chunk: domain.ChunkFromPayload(pointID(hit.GetId()), fromPayload(hit.GetPayload())),
			Score: float64(hit.GetScore()),
		})
	}
	return results, nil
}

// ListSources scrolls through all points and collects distinct sources.
func (s *Store) ListSources(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	limit := uint32(scrollPageSize)
	var offset *qdrant.PointId

	for {
		req := &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude(domain.PayloadSource, domain.PayloadURL),
		}
		points, err := s.client.Scroll(ctx, req)
		if err != nil {
			return nil, wrapError("failed to list sources", err)
		}

		page := points
		// The offset point is included in the next page.
		if offset != nil && len(page) > 0 && pointID(page[0].GetId()) == pointID(offset) {
			page = page[1:]
		}
		for _, p := range page {
			payload := fromPayload(p.GetPayload())
			source, _ := payload[domain.PayloadSource].(string)
			if source == "" {
				source, _ = payload[domain.PayloadURL].(string)
			}
			if source != "" {
				seen[source] = struct{}{}
			}
		}

		if len(points) < scrollPageSize || len(page) == 0 {
			break
		}
		offset = points[len(points)-1].GetId()
	}

	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources, nil
}

// DeleteDocuments counts the matching points and then deletes them.
func (s *Store) DeleteDocuments(ctx context.Context, filter domain.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, domain.NewStorageError("refusing to delete with an empty filter", domain.ErrInvalidInput)
	}
	qf, err := toFilter(filter)
	if err != nil {
		return 0, err
	}

	exact := true
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         qf,
		Exact:          &exact,
	})
	if err != nil {
		return 0, wrapError("failed to count documents", err)
	}
	if count == 0 {
		return 0, nil
	}

	wait := true
	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(qf),
	})
	if err != nil {
		return 0, wrapError("failed to delete documents", err)
	}
	logger.Debug("qdrant: deleted %d points", count)
	return int(count), nil
}

func (s *Store) setDimension(dimension int) {
	s.mu.Lock()
	s.dimension = dimension
	s.mu.Unlock()
}

func (s *Store) requireDimension() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension == 0 {
		return 0, domain.NewStorageError("collection not initialized", nil)
	}
	return s.dimension, nil
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

// wrapError converts a client error to a StorageError. A missing
// collection is reported as a NotFoundError cause.
func wrapError(message string, err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return domain.NewStorageError(message, domain.NewNotFoundError("collection", err))
	}
	return domain.NewStorageError(message, err)
}
