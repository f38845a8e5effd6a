// Package mcp exposes the retrieval service as Model Context Protocol tools.
// Every tool call goes through a Dispatcher that validates arguments,
// enforces a timeout and turns all failures into text.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
