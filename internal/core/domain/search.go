package domain

// DefaultSearchLimit is the number of results returned when no limit is given.
const DefaultSearchLimit = 5

// UnknownSource is displayed when a result has neither a title nor a source.
const UnknownSource = "Unknown source"

// Filter constrains a search or deletion to payloads whose fields equal
// the given values. Keys are payload field names ("source", "file_type")
// or dotted paths into the nested metadata ("metadata.author").
// Values are strings, integers or booleans.
type Filter map[string]any

// Matches reports whether every condition holds for the payload.
// An empty filter matches everything.
func (f Filter) Matches(payload map[string]any) bool {
	for key, want := range f {
		got, ok := Lookup(payload, key)
		if !ok || !scalarEqual(got, want) {
			return false
		}
	}
	return true
}

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// Filters restricts results to matching payloads.
	Filters Filter

	// MinScore excludes results scoring below it. Zero means no floor.
	MinScore float64
}

// EffectiveLimit returns Limit, or DefaultSearchLimit when unset.
func (o SearchOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultSearchLimit
	}
	return o.Limit
}

// SearchQuery is a text query plus its options.
type SearchQuery struct {
	Query string
	SearchOptions
}

// SearchResult pairs a retrieved chunk with its cosine similarity.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity; higher is more similar.
	Score float64
}

// DisplayTitle returns the title, falling back to the source key.
func (r SearchResult) DisplayTitle() string {
	if r.Chunk.Metadata.Title != "" {
		return r.Chunk.Metadata.Title
	}
	if key := r.Chunk.Metadata.SourceKey(); key != "" {
		return key
	}
	return UnknownSource
}

// DisplaySource returns the URL, falling back to the source path.
func (r SearchResult) DisplaySource() string {
	if r.Chunk.Metadata.URL != "" {
		return r.Chunk.Metadata.URL
	}
	if r.Chunk.Metadata.Source != "" {
		return r.Chunk.Metadata.Source
	}
	return UnknownSource
}

func scalarEqual(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		wf, ok := toFloat(want)
		return ok && gf == wf
	}
	switch w := want.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == w
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
