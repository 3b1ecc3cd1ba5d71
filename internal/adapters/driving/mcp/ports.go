package mcp

import (
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Session answers questions about the loaded contract.
	Session driving.ContractSession

	// Document manages the ingested document library.
	Document driving.DocumentService

	// Owner scopes document lookups.
	Owner string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Session == nil {
		return ErrMissingSession
	}
	// Document is optional; without it tools require a pre-loaded session
	return nil
}
