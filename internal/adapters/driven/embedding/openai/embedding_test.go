package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

type capturedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []capturedRequest
	auth     []string
	reverse  bool
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/embeddings":
			var req capturedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.mu.Lock()
			f.requests = append(f.requests, req)
			f.mu.Unlock()

			data := make([]map[string]any, len(req.Input))
			for i := range req.Input {
				data[i] = map[string]any{
					"object":    "embedding",
					"index":     i,
					"embedding": []float64{float64(len(req.Input[i])), 1},
				}
			}
			if f.reverse {
				for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
					data[i], data[j] = data[j], data[i]
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"model":  req.Model,
				"data":   data,
				"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
			})
		case "/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func newService(t *testing.T, api *fakeAPI, cfg Config) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	if cfg.APIKey == "" {
		cfg.APIKey = "sk-test"
	}
	cfg.BaseURL = server.URL
	s, err := NewEmbeddingService(cfg)
	require.NoError(t, err)
	return s
}

func TestNewEmbeddingService(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewEmbeddingService(Config{})
		var ee *domain.EmbeddingError
		require.ErrorAs(t, err, &ee)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("model dimensions", func(t *testing.T) {
		tests := []struct {
			model string
			dims  int
			want  int
		}{
			{"", 0, 1536},
			{"text-embedding-3-large", 0, 3072},
			{"text-embedding-ada-002", 0, 1536},
			{"custom-model", 0, 1536},
			{"text-embedding-3-large", 256, 256},
		}
		for _, tt := range tests {
			s, err := NewEmbeddingService(Config{APIKey: "k", Model: tt.model, Dimensions: tt.dims})
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Dimensions(), tt.model)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		s, err := NewEmbeddingService(Config{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, s.ModelName())
		assert.Equal(t, DefaultBatchSize, s.batchSize)
		assert.NoError(t, s.Close())
	})
}

func TestEmbed(t *testing.T) {
	api := &fakeAPI{}
	s := newService(t, api, Config{})

	vec, err := s.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vec)

	require.Len(t, api.requests, 1)
	assert.Equal(t, DefaultModel, api.requests[0].Model)
	assert.Equal(t, []string{"hello"}, api.requests[0].Input)
	assert.Zero(t, api.requests[0].Dimensions)
	assert.Equal(t, "Bearer sk-test", api.auth[0])
}

func TestEmbedBatch(t *testing.T) {
	t.Run("splits into batches and keeps order", func(t *testing.T) {
		api := &fakeAPI{reverse: true}
		s := newService(t, api, Config{BatchSize: 2})

		texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
		vecs, err := s.EmbedBatch(context.Background(), texts)
		require.NoError(t, err)
		require.Len(t, vecs, 5)
		for i, text := range texts {
			assert.Equal(t, float32(len(text)), vecs[i][0])
		}

		require.Len(t, api.requests, 3)
		assert.Len(t, api.requests[0].Input, 2)
		assert.Len(t, api.requests[2].Input, 1)
	})

	t.Run("sends dimensions for v3 models", func(t *testing.T) {
		api := &fakeAPI{}
		s := newService(t, api, Config{Model: "text-embedding-3-small", Dimensions: 512})

		_, err := s.EmbedBatch(context.Background(), []string{"x"})
		require.NoError(t, err)
		assert.Equal(t, 512, api.requests[0].Dimensions)
	})

	t.Run("empty input makes no request", func(t *testing.T) {
		api := &fakeAPI{}
		s := newService(t, api, Config{})

		vecs, err := s.EmbedBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vecs)
		assert.Empty(t, api.requests)
	})
}

func TestEmbed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "x")
	var ee *domain.EmbeddingError
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, err.Error(), "status 401")

	err = s.Ping(context.Background())
	require.ErrorAs(t, err, &ee)
	assert.Contains(t, err.Error(), "ping failed")
}

func TestPing(t *testing.T) {
	api := &fakeAPI{}
	s := newService(t, api, Config{})
	assert.NoError(t, s.Ping(context.Background()))
}
