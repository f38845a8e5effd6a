package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// mockEmbedder returns fixed vectors keyed by text.
// Unknown texts map to a unit vector on the first axis.
type mockEmbedder struct {
	mu      sync.Mutex
	dim     int
	vectors map[string][]float32
	failOn  string
	calls   int
}

func newMockEmbedder(dim int) *mockEmbedder {
	return &mockEmbedder{dim: dim, vectors: make(map[string][]float32)}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, domain.NewEmbeddingError("embedding failed", errors.New("model overloaded"))
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, m.dim)
	v[0] = 1
	return v, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dim }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeRunner serves pdfinfo and pdftotext output for a fixed document.
type fakeRunner struct {
	info  string
	pages map[string]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	switch name {
	case "pdfinfo":
		return []byte(r.info), nil
	case "pdftotext":
		return []byte(r.pages[args[1]]), nil
	default:
		return nil, errors.New("unexpected command " + name)
	}
}
