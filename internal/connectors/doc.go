// Package connectors provides access to the places documents come from.
// The filesystem connector enumerates and watches local directories for
// directory ingestion and re-indexing.
package connectors
