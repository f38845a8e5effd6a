package domain

import (
	"maps"
	"slices"
	"time"
)

// Metadata describes where a chunk came from.
// Every field is optional; zero values mean "not known".
type Metadata struct {
	// Source is the origin path or URL.
	Source string

	// URL is set for chunks fetched over HTTP.
	URL string

	// Title is the human-readable document title.
	Title string

	// Author is the document author when the format records one.
	Author string

	// CreatedAt is the document creation time, if known.
	CreatedAt *time.Time

	// FileType is the format, e.g. "pdf", "md", "html".
	FileType string

	// PageNumber is the 1-based page for paginated formats. Zero means unset.
	PageNumber int

	// ChunkIndex is the position of the chunk within its page or document.
	ChunkIndex int

	// Section names a heading or logical section.
	Section string

	// Tags is a free-form tag set.
	Tags []string

	// Custom holds extension key-value pairs.
	Custom map[string]any
}

// SourceKey returns the identifier used by the source registry:
// Source, falling back to URL.
func (m Metadata) SourceKey() string {
	if m.Source != "" {
		return m.Source
	}
	return m.URL
}

// Clone returns a deep copy so chunks never share mutable state.
func (m Metadata) Clone() Metadata {
	out := m
	if m.CreatedAt != nil {
		t := *m.CreatedAt
		out.CreatedAt = &t
	}
	out.Tags = slices.Clone(m.Tags)
	if m.Custom != nil {
		out.Custom = maps.Clone(m.Custom)
	}
	return out
}

// Chunk is a bounded span of document text with its metadata.
// Chunks are values created by a processor and never modified afterwards;
// to change metadata, build a new chunk.
type Chunk struct {
	// ID is a globally unique identifier assigned at creation.
	ID string

	// Text is the chunk content. It is non-empty after trimming.
	Text string

	// Metadata describes the chunk origin.
	Metadata Metadata

	// Timestamp is when the chunk was created.
	Timestamp time.Time
}

// IngestResult summarises the ingestion of a single source.
type IngestResult struct {
	// Source is the URL or path that was ingested.
	Source string

	// Chunks is the number of chunks stored.
	Chunks int
}

// FileOutcome records the result of ingesting one file of a directory.
type FileOutcome struct {
	Path   string
	Chunks int
	Error  string
}

// DirectoryReport accumulates the statistics of a directory ingestion.
type DirectoryReport struct {
	// Path is the directory that was walked.
	Path string

	Processed   int
	Failed      int
	Skipped     int
	TotalChunks int

	// ProcessedFiles lists successfully ingested files in walk order.
	ProcessedFiles []FileOutcome

	// FailedFiles lists files whose processing failed, with the error text.
	FailedFiles []FileOutcome
}

// FileEntry describes a regular file found on disk.
type FileEntry struct {
	// Path is the file path as given or joined during a walk.
	Path string

	// MIMEType is detected from the file extension.
	MIMEType string

	// Size is the file size in bytes.
	Size int64

	// IsDir is set when Stat was called on a directory.
	IsDir bool

	// Hidden is set for dot-prefixed files found during a walk.
	// They are reported so they can be counted but are never ingested.
	Hidden bool
}

// ChangeType is the kind of change observed on a watched file.
type ChangeType string

// Change types reported by file watchers.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// FileChange is a single change event from a watched directory.
type FileChange struct {
	Type ChangeType
	Path string
}
