// Package processors provides the document processors that turn a file path
// or URL into chunks, and the registry that selects between them.
//
// Each processor handles one family of formats and owns its chunking policy:
//
//   - pdf: page-by-page extraction, word-accumulation chunks per page
//   - text: text and source files, word-accumulation chunks
//   - web: fetched HTML pages, fixed-offset slices
//
// Processors are registered with the Registry at startup. The first processor
// whose CanProcess accepts a document handles it.
package processors
