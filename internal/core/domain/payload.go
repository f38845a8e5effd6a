package domain

import (
	"strings"
	"time"
)

// Payload keys shared by every vector store.
const (
	PayloadText       = "text"
	PayloadTimestamp  = "timestamp"
	PayloadSource     = "source"
	PayloadURL        = "url"
	PayloadTitle      = "title"
	PayloadFileType   = "file_type"
	PayloadPageNumber = "page_number"
	PayloadMetadata   = "metadata"
)

// Payload returns the stored representation of the chunk.
// The commonly filtered fields are flattened to the top level and the full
// metadata is nested under "metadata".
func (c Chunk) Payload() map[string]any {
	p := map[string]any{
		PayloadText:      c.Text,
		PayloadTimestamp: c.Timestamp.UTC().Format(time.RFC3339Nano),
		PayloadMetadata:  c.Metadata.ToMap(),
	}
	if source := c.Metadata.SourceKey(); source != "" {
		p[PayloadSource] = source
	}
	if c.Metadata.URL != "" {
		p[PayloadURL] = c.Metadata.URL
	}
	if c.Metadata.Title != "" {
		p[PayloadTitle] = c.Metadata.Title
	}
	if c.Metadata.FileType != "" {
		p[PayloadFileType] = c.Metadata.FileType
	}
	if c.Metadata.PageNumber > 0 {
		p[PayloadPageNumber] = int64(c.Metadata.PageNumber)
	}
	return p
}

// ChunkFromPayload rebuilds a chunk from a stored payload.
// Payloads written without the nested metadata object are read from the
// flat fields instead.
func ChunkFromPayload(id string, p map[string]any) Chunk {
	c := Chunk{
		ID:   id,
		Text: stringValue(p[PayloadText]),
	}
	if ts := stringValue(p[PayloadTimestamp]); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			c.Timestamp = parsed
		}
	}

	if nested, ok := p[PayloadMetadata].(map[string]any); ok {
		c.Metadata = MetadataFromMap(nested)
	} else {
		c.Metadata = MetadataFromMap(p)
	}
	if c.Metadata.Source == "" && c.Metadata.URL == "" {
		c.Metadata.Source = stringValue(p[PayloadSource])
	}
	return c
}

// ToMap converts metadata to a plain map, omitting unset fields.
func (m Metadata) ToMap() map[string]any {
	out := make(map[string]any)
	setString(out, "source", m.Source)
	setString(out, "url", m.URL)
	setString(out, "title", m.Title)
	setString(out, "author", m.Author)
	setString(out, "file_type", m.FileType)
	setString(out, "section", m.Section)
	if m.CreatedAt != nil {
		out["created_at"] = m.CreatedAt.UTC().Format(time.RFC3339)
	}
	if m.PageNumber > 0 {
		out["page_number"] = int64(m.PageNumber)
	}
	out["chunk_index"] = int64(m.ChunkIndex)
	if len(m.Tags) > 0 {
		tags := make([]any, len(m.Tags))
		for i, tag := range m.Tags {
			tags[i] = tag
		}
		out["tags"] = tags
	}
	if len(m.Custom) > 0 {
		custom := make(map[string]any, len(m.Custom))
		for k, v := range m.Custom {
			custom[k] = v
		}
		out["custom"] = custom
	}
	return out
}

// MetadataFromMap parses metadata written by ToMap or decoded from JSON.
// Unknown keys are ignored and mistyped values are treated as unset.
func MetadataFromMap(in map[string]any) Metadata {
	m := Metadata{
		Source:     stringValue(in["source"]),
		URL:        stringValue(in["url"]),
		Title:      stringValue(in["title"]),
		Author:     stringValue(in["author"]),
		FileType:   stringValue(in["file_type"]),
		Section:    stringValue(in["section"]),
		PageNumber: intValue(in["page_number"]),
		ChunkIndex: intValue(in["chunk_index"]),
	}
	if created := stringValue(in["created_at"]); created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			m.CreatedAt = &t
		}
	}
	switch tags := in["tags"].(type) {
	case []string:
		m.Tags = append([]string(nil), tags...)
	case []any:
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				m.Tags = append(m.Tags, s)
			}
		}
	}
	if custom, ok := in["custom"].(map[string]any); ok && len(custom) > 0 {
		m.Custom = make(map[string]any, len(custom))
		for k, v := range custom {
			m.Custom[k] = v
		}
	}
	return m
}

// Lookup resolves a filter key against a payload.
// Dotted keys such as "metadata.author" walk nested objects.
func Lookup(p map[string]any, key string) (any, bool) {
	if v, ok := p[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	nested, ok := p[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return Lookup(nested, rest)
}

func setString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}
