// Package vectors holds the similarity arithmetic shared by the embedded
// vector stores.
package vectors

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b.
// Vectors of different length or with zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank sorts results by descending score, drops those under minScore and
// keeps at most limit. Ties keep their input order.
func Rank(results []domain.SearchResult, limit int, minScore float64) []domain.SearchResult {
	kept := results[:0]
	for _, r := range results {
		if minScore > 0 && r.Score < minScore {
			continue
		}
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// Encode converts a vector to little-endian float32 bytes.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts little-endian float32 bytes back to a vector.
// Trailing bytes that do not form a whole float are ignored.
func Decode(data []byte) []float32 {
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
