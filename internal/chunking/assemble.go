package chunking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// Assemble turns chunk texts into chunks sharing a copy of base metadata.
// Each chunk gets a fresh UUID, its position as ChunkIndex and the current
// time. Texts that are empty after trimming are skipped.
func Assemble(texts []string, base domain.Metadata) []domain.Chunk {
	now := time.Now().UTC()
	chunks := make([]domain.Chunk, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		meta := base.Clone()
		meta.ChunkIndex = len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:        uuid.New().String(),
			Text:      text,
			Metadata:  meta,
			Timestamp: now,
		})
	}
	return chunks
}
