// Package tui provides an interactive chat terminal interface for Contracta.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"errors"

	"github.com/custodia-labs/contracta-cli/internal/core/ports/driving"
)

// ErrMissingSession is returned when the contract session is not provided.
var ErrMissingSession = errors.New("tui: contract session is required")

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Session answers questions about the loaded contract.
	Session driving.ContractSession
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Session == nil {
		return ErrMissingSession
	}
	return nil
}
