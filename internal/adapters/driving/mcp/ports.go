package mcp

import (
	"time"

	"github.com/custodia-labs/ragdocs/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval ingests documents and answers queries.
	Retrieval driving.RetrievalService

	// Timeout bounds every tool call. Zero selects DefaultTimeout.
	Timeout time.Duration
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
