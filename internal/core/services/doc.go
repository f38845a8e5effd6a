// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - RetrievalService: ingestion, search, source listing and deletion
//   - SettingsService: config file values overlaid with environment variables
//
// The Format* helpers render service results as the text returned by the
// MCP tools and printed by the CLI.
package services
